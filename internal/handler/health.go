package handler // declare the package name; contains HTTP handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health backs /healthz for load balancers and probes.  The seat map and
// session tables live in process memory, so a responding process is a
// healthy one.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
