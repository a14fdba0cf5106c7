package auth

import (
	"context"
	"net/http"

	"github.com/wolfman30/telehealth-portal/internal/users"
	"golang.org/x/net/websocket"
)

// SessionEvent is pushed to every open tab of a browser session.
type SessionEvent struct {
	Type string               `json:"type"` // "session" or "cleared"
	User *users.PublicProfile `json:"user,omitempty"`
}

func eventFor(identity Identity) SessionEvent {
	if p, ok := identity.Profile(); ok {
		return SessionEvent{Type: "session", User: &p}
	}
	return SessionEvent{Type: "cleared"}
}

// SessionEvents handles GET /auth/session/events. The current identity is
// sent first, then every change until the client disconnects.
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveSessionEvents(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveSessionEvents(conn *websocket.Conn, r *http.Request) {
	c, err := r.Cookie(SessionIDCookie)
	if err != nil || c.Value == "" {
		_ = websocket.JSON.Send(conn, SessionEvent{Type: "cleared"})
		return
	}
	sid := c.Value

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, err := h.service.sessions.Subscribe(ctx, sid)
	if err != nil {
		h.logger.Warn("tab sync subscribe failed", "error", err)
		return
	}

	identity, err := h.service.CurrentIdentity(ctx, sid)
	if err != nil {
		h.logger.Warn("tab sync load failed", "error", err)
	}
	if err := websocket.JSON.Send(conn, eventFor(identity)); err != nil {
		return
	}

	// Clients never send anything meaningful; a read error means they left.
	go func() {
		defer cancel()
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for change := range changes {
		ev := SessionEvent{Type: "cleared"}
		if !change.Removed {
			ev = eventFor(change.Identity)
		}
		if err := websocket.JSON.Send(conn, ev); err != nil {
			return
		}
	}
}
