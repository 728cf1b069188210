// Package web provides the HTTP status server for the radmon daemon: a
// status page, JSON status, CSV download, front-panel actions and a
// websocket that streams status as it changes.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

const (
	writeWait     = 5 * time.Second
	actionTimeout = 5 * time.Second
)

// Controller reaches the running instrument. *instrument.Remote implements it.
type Controller interface {
	Do(ctx context.Context, a instrument.Action) error
	ExportCSV(ctx context.Context) ([]byte, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the panel page may be served from another host on the LAN
	},
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	ctrl       Controller
	now        func() time.Time
}

// New creates a Server that reads state from tracker and sends actions to
// ctrl. A nil ctrl makes the server read-only.
func New(addr string, tracker *status.Tracker, ctrl Controller) *Server {
	s := &Server{tracker: tracker, ctrl: ctrl, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/export.csv", s.handleExport)
	mux.HandleFunc("POST /api/button", s.handleButton)
	mux.HandleFunc("POST /api/action", s.handleAction)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "instrument not attached", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	csv, err := s.ctrl.ExportCSV(ctx)
	if err != nil {
		log.Printf("web: export: %v", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", eventlog.FileName(s.now())))
	w.Write(csv)
}

// buttonRequest is the body of POST /api/button.
type buttonRequest struct {
	Button string `json:"button"`
}

func (s *Server) handleButton(w http.ResponseWriter, r *http.Request) {
	var req buttonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}
	b, err := menu.ParseButton(req.Button)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.act(w, r, instrument.Press(b))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var a instrument.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}
	s.act(w, r, a)
}

// act performs a and replies with the resulting status.
func (s *Server) act(w http.ResponseWriter, r *http.Request, a instrument.Action) {
	if err := s.do(r.Context(), a); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) do(ctx context.Context, a instrument.Action) error {
	if s.ctrl == nil {
		return errReadOnly
	}
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	if err := s.ctrl.Do(ctx, a); err != nil {
		log.Printf("web: action %s: %v", a.Kind, err)
		return err
	}
	return nil
}

var errReadOnly = errors.New("instrument not attached")

// statusFor maps instrument errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errReadOnly), errors.Is(err, instrument.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, menu.ErrNotEditingTable):
		return http.StatusConflict
	case errors.Is(err, instrument.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrTableTooShort), errors.Is(err, logic.ErrTableNotAscending):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadRequest
}

// wsError is sent on the websocket when an action fails.
type wsError struct {
	Error string `json:"error"`
}

// handleWS streams the status JSON on every tracker update and accepts
// actions as JSON messages in the other direction.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	wake, unsubscribe := s.tracker.Subscribe()
	defer unsubscribe()

	actions := make(chan instrument.Action)
	quit := make(chan struct{})
	closed := make(chan struct{})
	defer close(quit)

	// All writes happen on this goroutine; the reader only forwards.
	go func() {
		defer close(closed)
		for {
			var a instrument.Action
			if err := conn.ReadJSON(&a); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket read error: %v", err)
				}
				return
			}
			select {
			case actions <- a:
			case <-quit:
				return
			}
		}
	}()

	send := func(v []byte) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, v)
	}

	if err := send(status.FormatJSON(s.tracker.Snapshot())); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-wake:
			if err := send(status.FormatJSON(s.tracker.Snapshot())); err != nil {
				return
			}
		case a := <-actions:
			if err := s.do(r.Context(), a); err != nil {
				msg, _ := json.Marshal(wsError{Error: err.Error()})
				if err := send(msg); err != nil {
					return
				}
			}
		}
	}
}
