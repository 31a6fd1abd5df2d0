package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/middleware"
	"github.com/instaprep/instaprep-backend/internal/service"
	ws "github.com/instaprep/instaprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live session: detector signals and frames in, warning
// and finalization pushes out.
type WSHandler struct {
	sessions *service.SessionService
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, hub *ws.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		hub:      hub,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Upgrades to WebSocket for the duration of a session.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID := c.Param("id")
	eng, err := h.sessions.Engine(sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	h.hub.Register(sessionID, conn)
	defer h.hub.Unregister(sessionID, conn)

	wsLog := h.log.With().
		Int("candidate_id", claims.UserID).
		Str("session_id", sessionID).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := conn.Read(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			if err := eng.Answer(msg.Index, msg.Value); err != nil {
				conn.WriteError(err.Error())
				continue
			}
			conn.Write(ws.SavedResponse{Event: ws.EventSaved, Index: msg.Index})
			h.sessions.MirrorState(c.Request.Context(), eng)

		case ws.ActionFocusLost:
			eng.ReportFocusLost(msg.Reason)

		case ws.ActionFullscreenExit:
			eng.ReportFullscreenExited()

		case ws.ActionFrame:
			eng.SetFrame(msg.ImageB64)

		case ws.ActionFinish:
			eng.Finish()

		case ws.ActionPing:
			conn.Write(ws.PongResponse{Event: ws.EventPong})

		default:
			conn.WriteError("unknown action")
		}
	}

	wsLog.Info().Msg("Candidate disconnected")
}
