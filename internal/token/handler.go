package token

import (
	"log/slog"
	"net/http"

	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/labstack/echo/v4"
)

const defaultVoice = "alloy"

// Handler serves POST /api/rt-session: mint an ephemeral credential upstream
// and hand it to the client alongside the session id.
type Handler struct {
	upstream Upstream
	issued   IssueLog
	log      *slog.Logger
}

func NewHandler(upstream Upstream, issued IssueLog, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		upstream: upstream,
		issued:   issued,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/rt-session", h.HandleMint)
}

type MintRequest struct {
	Voice string `json:"voice"`
}

type MintResponse struct {
	ClientSecret ClientSecret `json:"client_secret"`
	SessionID    string       `json:"session_id"`
}

type ClientSecret struct {
	Value string `json:"value"`
}

func (h *Handler) HandleMint(c echo.Context) error {
	var req MintRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoice
	}

	cred, err := h.upstream.CreateSession(c.Request().Context(), voice)
	if err != nil {
		h.log.Error("upstream mint failed", "error", err)
		return shared.BadGateway("mint_failed", "failed to create realtime session")
	}

	if h.issued != nil {
		if err := h.issued.RecordIssued(c.Request().Context(), cred.SessionID, voice); err != nil {
			h.log.Warn("failed to record issued session", "session_id", cred.SessionID, "error", err)
		}
	}

	h.log.Info("issued realtime session", "session_id", cred.SessionID, "voice", voice)

	return c.JSON(http.StatusOK, MintResponse{
		ClientSecret: ClientSecret{Value: cred.Secret},
		SessionID:    cred.SessionID,
	})
}
