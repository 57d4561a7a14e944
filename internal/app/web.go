package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WindowMessage is pushed over /ws/sessions/{name} on every display tick.
type WindowMessage struct {
	Session acquisition.Info `json:"session"`
	Samples []imu.Sample     `json:"samples"`
}

// WebServer exposes sessions and their display windows over HTTP.
type WebServer struct {
	manager   *acquisition.Manager
	interval  time.Duration
	staticDir string
}

func NewWebServer(manager *acquisition.Manager, interval time.Duration) *WebServer {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &WebServer{manager: manager, interval: interval, staticDir: "web"}
}

func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/sessions/{name}", s.handleSession)
	mux.HandleFunc("GET /api/sessions/{name}/window", s.handleWindow)
	mux.HandleFunc("GET /api/sessions/{name}/window.png", s.handleWindowPNG)
	mux.HandleFunc("GET /ws/sessions/{name}", s.handleWS)

	// Static files from ./web as the root
	if st, err := os.Stat(s.staticDir); err == nil && st.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *WebServer) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *WebServer) lookup(w http.ResponseWriter, r *http.Request) (*acquisition.Session, bool) {
	name := r.PathValue("name")
	sess, ok := s.manager.Session(name)
	if !ok {
		http.Error(w, "unknown session "+strconv.Quote(name), http.StatusNotFound)
	}
	return sess, ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.manager.Infos())
}

func (s *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, sess.Info())
}

func (s *WebServer) handleWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, WindowMessage{Session: sess.Info(), Samples: sess.Window().Snapshot()})
}

func (s *WebServer) handleWindowPNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	height, _ := strconv.Atoi(r.URL.Query().Get("h"))
	if width > 4096 || height > 4096 {
		http.Error(w, "image too large", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := WriteWindowPNG(w, sess.Name(), sess.Window().Snapshot(), width, height); err != nil {
		log.Printf("web: png encode error: %v", err)
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// the client never sends anything we act on; reading detects close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		msg := WindowMessage{Session: sess.Info(), Samples: sess.Window().Snapshot()}
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("web: websocket write error (%s): %v", sess.Name(), err)
			return
		}
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
