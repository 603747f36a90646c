package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const version = "1.0.0"

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Redis   string `json:"redis"`
}

func RegisterHealthRoutes(e *echo.Echo, client *redis.Client) {
	e.GET("/healthz", func(c echo.Context) error {
		resp := healthResponse{
			Status:  "ok",
			Version: version,
			Redis:   "ok",
		}

		if err := client.Ping(c.Request().Context()).Err(); err != nil {
			resp.Status = "degraded"
			resp.Redis = err.Error()
		}

		return c.JSON(http.StatusOK, resp)
	})
}

var HealthModule = fx.Options(
	fx.Invoke(RegisterHealthRoutes),
)
