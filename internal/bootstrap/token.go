package bootstrap

import (
	"log/slog"

	"github.com/connorholly11/purpose-voice/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func ProvideUpstream(cfg *Config) token.Upstream {
	return token.NewRealtimeUpstream(token.UpstreamConfig{
		BaseURL: cfg.UpstreamURL,
		APIKey:  cfg.UpstreamAPIKey,
		Model:   cfg.RealtimeModel,
	})
}

func ProvideIssueLog(cfg *Config, client *redis.Client) token.IssueLog {
	return token.NewStore(client, cfg.SessionTTL)
}

func ProvideTokenHandler(upstream token.Upstream, issued token.IssueLog, logger *slog.Logger) *token.Handler {
	return token.NewHandler(upstream, issued, logger)
}

func RegisterTokenRoutes(e *echo.Echo, h *token.Handler) {
	h.RegisterRoutes(e.Group("/api"))
}

var TokenModule = fx.Options(
	fx.Provide(
		ProvideUpstream,
		ProvideIssueLog,
		ProvideTokenHandler,
	),
	fx.Invoke(RegisterTokenRoutes),
)
