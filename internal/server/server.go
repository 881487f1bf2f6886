// Package server exposes a dispatch.Registry over websocket. Each text
// message is one request; responses carry the request id back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
)

type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

type Response struct {
	ID     json.RawMessage     `json:"id,omitempty"`
	Result any                 `json:"result,omitempty"`
	Error  *dispatch.ErrorBody `json:"error,omitempty"`
}

type Server struct {
	reg      *dispatch.Registry
	log      *zap.Logger
	upgrader websocket.Upgrader
}

type Option func(*Server)

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithOriginCheck replaces the default same-host origin check.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// AllowOrigins accepts requests without an Origin header and requests whose
// Origin is one of origins.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

func New(reg *dispatch.Registry, opts ...Option) *Server {
	s := &Server{
		reg: reg,
		log: zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	running, err := s.reg.Invoke(r.Context(), dispatch.CmdIsRunning, nil)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": dispatch.ErrorOf(err)})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"running": running})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.log.With(zap.String("session", uuid.NewString()))
	log.Info("client connected", zap.String("remote", r.RemoteAddr))
	defer log.Info("client disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read failed", zap.Error(err))
			}
			return
		}
		resp := s.serve(ctx, log, msg)
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) serve(ctx context.Context, log *zap.Logger, msg []byte) Response {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return Response{Error: &dispatch.ErrorBody{Kind: "BadRequest", Message: err.Error()}}
	}
	start := time.Now()
	result, err := s.reg.Invoke(ctx, req.Command, req.Args)
	log.Debug("invoke",
		zap.String("command", req.Command),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return Response{ID: req.ID, Error: dispatch.ErrorOf(err)}
	}
	return Response{ID: req.ID, Result: result}
}
