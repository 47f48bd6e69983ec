package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/engine"
	"github.com/sonnes/sutradhar/watch"
)

const writeTimeout = 15 * time.Second

// wsEnvelope is the frame sent over a session feed. Type is "snapshot",
// "effect" or "error".
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// snapshotData carries the full view after a change.
type snapshotData struct {
	Transcript core.Transcript `json:"transcript"`
	State      engine.State    `json:"state"`
}

// handleFeed streams one session. Recorded events are replayed without side
// effects and sent as a single snapshot; events appended afterwards are
// applied live, each followed by a fresh snapshot and the effects it
// produced.
func (srv *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	path := srv.reader.Path(id)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer ws.CloseNow()

	// Clients never send; CloseRead cancels ctx once the peer goes away.
	ctx := ws.CloseRead(r.Context())

	logger := srv.logger.With("session_id", id)
	eng := srv.newEngine(id)
	follower := watch.NewFollower(path,
		watch.WithPollInterval(srv.poll),
		watch.WithLogger(logger),
	)

	var backlog []core.Event
	err = follower.Drain(func(ev core.Event) error {
		backlog = append(backlog, ev)
		return nil
	})
	if err != nil {
		srv.sendError(ctx, ws, err)
		return
	}
	eng.Replay(id, backlog)
	logger.Debug("feed caught up", "events", len(backlog))

	if err := srv.sendSnapshot(ctx, ws, eng); err != nil {
		return
	}

	dispatch := engine.DispatcherFunc(func(ctx context.Context, fx engine.Effect) error {
		return writeEnvelope(ctx, ws, wsEnvelope{Type: "effect", Data: fx})
	})

	err = follower.Follow(ctx, func(ev core.Event) error {
		effects := eng.Apply(ev, engine.Live)
		if err := srv.sendSnapshot(ctx, ws, eng); err != nil {
			return err
		}
		return engine.DispatchAll(ctx, dispatch, effects)
	})
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		ws.Close(websocket.StatusNormalClosure, "")
	default:
		logger.Debug("feed ended", "err", err)
	}
}

func (srv *Server) sendSnapshot(ctx context.Context, ws *websocket.Conn, eng *engine.Engine) error {
	t := eng.Snapshot()
	if err := core.Chain(&t, srv.transformers...); err != nil {
		return err
	}
	return writeEnvelope(ctx, ws, wsEnvelope{
		Type: "snapshot",
		Data: snapshotData{Transcript: t, State: eng.State()},
	})
}

func (srv *Server) sendError(ctx context.Context, ws *websocket.Conn, err error) {
	srv.logger.Error("feed", "err", err)
	_ = writeEnvelope(ctx, ws, wsEnvelope{Type: "error", Data: errorResponse{Error: err.Error()}})
	ws.Close(websocket.StatusInternalError, "feed failed")
}

func writeEnvelope(ctx context.Context, ws *websocket.Conn, env wsEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.Type, err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
