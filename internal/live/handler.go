package live

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const TypeSnapshot = "snapshot"

// Snapshot loads the current state sent to a client right after it connects.
type Snapshot func(ctx context.Context, tournamentID uuid.UUID) (any, error)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	snapshot Snapshot
}

// NewHandler accepts connections from the given origins. An empty list or
// "*" accepts every origin.
func NewHandler(hub *Hub, allowedOrigins []string, snapshot Snapshot) *Handler {
	return &Handler{
		hub:      hub,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// ServeWS upgrades GET /ws/tournaments/{id}. The first frame is the
// tournament snapshot; later frames are bracket events.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}

	var first []byte
	if h.snapshot != nil {
		state, err := h.snapshot(r.Context(), id)
		if err != nil {
			httputil.Error(w, "Failed to load tournament", err)
			return
		}
		first, err = json.Marshal(Message{Type: TypeSnapshot, RoomID: id.String(), Payload: state})
		if err != nil {
			httputil.InternalServerError(w, "Failed to encode snapshot", err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.hub.logger.Warn("websocket upgrade failed", "tournament_id", id, "error", err)
		return
	}

	c := &Client{hub: h.hub, conn: conn, send: make(chan []byte, sendBuffer), room: id}
	if first != nil {
		c.send <- first
	}
	if !h.hub.join(c) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go c.WritePump()
	go c.ReadPump()
}
