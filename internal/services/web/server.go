package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/scopeweb/internal/platform/timeouts"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/platform/httpx"
	"github.com/louisbranch/scopeweb/internal/services/web/platform/observability"
	"github.com/louisbranch/scopeweb/internal/services/web/static"
	webstorage "github.com/louisbranch/scopeweb/internal/services/web/storage"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
	"golang.org/x/net/websocket"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	// App is the module composition served on every page and session.
	App *module.App
	// Bookmarks persists saved input state. Nil disables bookmarking.
	Bookmarks webstorage.BookmarkStore
	// PublicBaseURL prefixes bookmark links. Empty yields relative links.
	PublicBaseURL string
	// SessionQueue bounds the pending events of one live session.
	SessionQueue int
	Logger       *log.Logger
}

// Server hosts the web HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	bookmarks  webstorage.BookmarkStore
	logger     *log.Logger
}

type handler struct {
	app           *module.App
	bookmarks     webstorage.BookmarkStore
	publicBaseURL string
	sessionQueue  int
	logger        *log.Logger
}

// NewHandler builds the web routes: the page, the live session socket,
// health and static assets.
func NewHandler(config Config) (http.Handler, error) {
	if config.App == nil {
		return nil, errors.New("app is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &handler{
		app:           config.App,
		bookmarks:     config.Bookmarks,
		publicBaseURL: strings.TrimSpace(config.PublicBaseURL),
		sessionQueue:  config.SessionQueue,
		logger:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle(templates.StaticPrefix, http.StripPrefix(templates.StaticPrefix, http.FileServer(http.FS(static.FS))))

	wsHandler := websocket.Handler(h.handleWSConn)
	mux.Handle("/ws", httpx.Chain(wsHandler, httpx.RequireMethod(http.MethodGet)))
	mux.Handle("/", httpx.Chain(http.HandlerFunc(h.handlePage), httpx.RequireMethod(http.MethodGet)))

	return httpx.Chain(mux,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	), nil
}

// NewServer builds a configured web server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(config)
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		bookmarks: config.Bookmarks,
		logger:    logger,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the bookmark store.
func (s *Server) Close() {
	if s == nil || s.bookmarks == nil {
		return
	}
	if err := s.bookmarks.Close(); err != nil {
		s.logger.Printf("close bookmark store: %v", err)
	}
}
