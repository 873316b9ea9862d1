package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-hold-engine/internal/metrics"
)

// Metrics records request counts and latency for every route.  The echo
// route template (c.Path) is used as the path label so path parameters do
// not explode label cardinality.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            m := metrics.Get()
            if m == nil {
                return next(c)
            }
            start := time.Now()
            err := next(c)

            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                }
            }
            method := c.Request().Method
            path := c.Path()
            m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
            m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
