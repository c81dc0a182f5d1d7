package session

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/logging"
	"github.com/nzcvm/nzcvm-webapp/internal/typeid"
)

type Handler struct {
	hub     *Hub
	origins []string
}

// NewHandler accepts WebSocket connections from the given origin patterns.
// A "*" entry accepts any origin.
func NewHandler(hub *Hub, origins []string) *Handler {
	return &Handler{hub: hub, origins: origins}
}

func (h *Handler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/ws/session", h.ServeWS).Methods("GET")
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	for _, o := range h.origins {
		if o == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		logging.From(r.Context()).Warn("websocket accept", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, typeid.NewSessionID(), logging.From(r.Context()))
	if !h.hub.Register(client) {
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	client.sendPayload(TypeWelcome, WelcomePayload{SessionID: client.ID})
	client.sendState()

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
