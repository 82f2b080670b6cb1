package http

import "github.com/labstack/echo/v4"

// Handler registers a group of routes on the server. The API handlers and
// the websocket hub both implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
