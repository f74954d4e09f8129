package handlers

import (
	"net/http"

	"household/internal/websocket"
)

// WSUpdates streams balance changes and notifications for the caller. Browsers
// pass the session token as access_token since they cannot set headers.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub, identity(r).UserID, h.log)
}
