package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/biggyd143/homebridge-casatunes/internal/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Controllers connect from app webviews with arbitrary origins.
		return true
	},
}

// RegisterRoutes wires the event stream routes to the router.
func RegisterRoutes(router chi.Router, hub *Hub) {
	router.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade failure already wrote the response.
			return
		}
		hub.Register(conn)
	})

	router.Method(http.MethodGet, "/v1/events/status", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.SingleResponse(w, r, http.StatusOK, "events", map[string]any{
			"subscribers": hub.ClientCount(),
		})
	}))
}
