package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleProgressSocket streams progress updates for the caller's session.
// The first message is the current state; later ones follow each change.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	updates, cancel := s.hub.Subscribe(state.ID)
	defer cancel()

	// Clients only listen; CloseRead handles pings and the close handshake.
	ctx := conn.CloseRead(r.Context())

	if err := s.writeUpdate(ctx, conn, s.progressUpdate("snapshot", "", state)); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case u := <-updates:
			if err := s.writeUpdate(ctx, conn, u); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeUpdate(ctx context.Context, conn *websocket.Conn, u ProgressUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	err := wsjson.Write(ctx, conn, u)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("websocket write failed", "error", err)
	}
	return err
}
