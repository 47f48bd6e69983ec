// Package server serves session transcripts over HTTP for local browsing,
// with a websocket feed that follows a session log as it grows.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/sutradhar/config"
	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/engine"
	"github.com/sonnes/sutradhar/reader/jsonl"
	htmlrender "github.com/sonnes/sutradhar/render/html"
	jsonrender "github.com/sonnes/sutradhar/render/json"
)

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// Dir holds the native session logs. Empty means jsonl.DefaultDir.
	Dir          string
	Config       *config.Config
	Logger       *log.Logger
	PollInterval time.Duration
	// Transformers run on every snapshot before it leaves the server.
	Transformers []core.Transformer
}

// Server hosts the session index, rendered session pages and live feeds.
type Server struct {
	reader       *jsonl.Reader
	cfg          *config.Config
	logger       *log.Logger
	poll         time.Duration
	transformers []core.Transformer
	html         *htmlrender.Renderer
	json         *jsonrender.Renderer
	httpServer   *http.Server
	host         string
	port         int
}

// New constructs a server. Call Start to begin listening.
func New(opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port < 0 {
		port = 0
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	srv := &Server{
		reader:       &jsonl.Reader{Dir: opts.Dir},
		cfg:          cfg,
		logger:       logger,
		poll:         opts.PollInterval,
		transformers: opts.Transformers,
		html:         htmlrender.New(),
		json:         &jsonrender.Renderer{Indent: true},
		host:         host,
		port:         port,
	}
	srv.html.FeedURL = func(sessionID string) string {
		return "/session/" + sessionID + "/feed"
	}

	mux := http.NewServeMux()
	srv.setupRoutes(mux)

	srv.httpServer = &http.Server{
		Addr:              srv.Addr(),
		Handler:           srv.logMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

func (srv *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", srv.handleIndex)
	mux.HandleFunc("GET /session/{id}", srv.handleSession)
	mux.HandleFunc("GET /session/{id}/feed", srv.handleFeed)
}

// Start binds the listener and serves in a background goroutine. A zero
// port picks a free one; Addr reports the bound address afterwards.
func (srv *Server) Start() error {
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		srv.port = tcpAddr.Port
		srv.httpServer.Addr = srv.Addr()
	}

	go func() {
		if err := srv.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Error("server stopped", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server. Open feeds end when their
// request contexts are cancelled.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.httpServer.Shutdown(ctx)
}

// Addr returns the bound host:port address.
func (srv *Server) Addr() string {
	return net.JoinHostPort(srv.host, strconv.Itoa(srv.port))
}

// URL returns the base URL of the running server.
func (srv *Server) URL() string {
	return "http://" + srv.Addr()
}

// newEngine returns a fresh engine for one session view.
func (srv *Server) newEngine(sessionID string) *engine.Engine {
	return engine.New(
		engine.WithConfig(srv.cfg),
		engine.WithLogger(srv.logger.WithPrefix("engine")),
		engine.WithSessionID(sessionID),
	)
}

// snapshot replays a recorded log and runs the configured transformers.
func (srv *Server) snapshot(l *core.EventLog) (core.Transcript, error) {
	t := srv.newEngine(l.SessionID).Replay(l.SessionID, l.Events)
	if err := core.Chain(&t, srv.transformers...); err != nil {
		return core.Transcript{}, fmt.Errorf("transform %s: %w", l.SessionID, err)
	}
	return t, nil
}

// validID rejects ids that could resolve outside the sessions directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (srv *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		srv.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
