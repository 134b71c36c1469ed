package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/netlens/netlens/pkg/netevent"
)

// watchBuffer is how many pending snapshots a watch connection may lag
// behind before it is dropped.
const watchBuffer = 16

// writeTimeout bounds a single snapshot write to a watch client.
const writeTimeout = 10 * time.Second

// handleWatch upgrades to WebSocket and pushes the full snapshot as JSON
// on every store mutation, starting with the current state. A consumer
// that cannot keep up is disconnected; it never blocks the store.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The live view runs on localhost during development; browsers
		// connect from arbitrary dev-server origins.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}

	connID := uuid.NewString()
	s.log.Debug("watch client connected", "conn", connID)

	snapshots := make(chan []*netevent.Event, watchBuffer)
	overflow := make(chan struct{}, 1)

	unsubscribe := s.store.Subscribe(func(events []*netevent.Event) {
		select {
		case snapshots <- events:
		default:
			// Consumer is behind; signal the writer to drop it.
			s.store.Metrics().SubscriberDropped()
			select {
			case overflow <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	ctx := r.Context()

	// Prime the client with the current state.
	if err := s.writeSnapshot(ctx, conn, s.store.Events()); err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	// Reads are discarded but keep the connection's close state current.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case events := <-snapshots:
			if err := s.writeSnapshot(ctx, conn, events); err != nil {
				s.log.Debug("watch client write failed", "conn", connID, "error", err)
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		case <-overflow:
			s.log.Debug("watch client too slow, dropping", "conn", connID)
			_ = conn.Close(websocket.StatusPolicyViolation, "consumer too slow")
			return
		case <-readDone:
			return
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

func (s *Server) writeSnapshot(ctx context.Context, conn *websocket.Conn, events []*netevent.Event) error {
	data, err := json.Marshal(EventListResponse{Events: events, Total: len(events)})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
