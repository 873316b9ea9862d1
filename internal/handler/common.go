package handler

import (
    "errors"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user identifier that the JWT
// middleware stored in the request context.  User IDs are opaque strings
// issued by the external auth service.
func getUserID(c echo.Context) (string, error) {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s, nil
    }
    return "", errors.New("invalid user_id in context")
}
