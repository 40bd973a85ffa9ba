package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/store"
)

// Server is the event collector: it accepts the recorder's JSON event
// POSTs, persists them to SQLite, and serves the registry to clients.
type Server struct {
	store     *store.SQLiteStore
	registry  *experiment.Registry
	port      int
	token     string
	tokenFile string
	router    *http.ServeMux
	log       *zap.Logger
	startTime time.Time
}

func New(s *store.SQLiteStore, registry *experiment.Registry, port int, token, tokenFile string, log *zap.Logger) *Server {
	if token == "" {
		token = generateToken()
	}
	if log == nil {
		log = zap.NewNop()
	}

	srv := &Server{
		store:     s,
		registry:  registry,
		port:      port,
		token:     token,
		tokenFile: tokenFile,
		router:    http.NewServeMux(),
		log:       log,
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/v1/experiments", s.handleExperiments)

	// Ingest endpoint (bearer token)
	s.router.Handle("/v1/events", s.bearerAuth(http.HandlerFunc(s.handleEvents)))
}

func (s *Server) Start() error {
	return s.StartWithOptions(true)
}

// StartQuiet starts the server without printing startup messages
func (s *Server) StartQuiet() error {
	return s.StartWithOptions(false)
}

func (s *Server) StartWithOptions(printMessages bool) error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.log.Warn("failed to write token file", zap.String("path", s.tokenFile), zap.Error(err))
		}
	}

	addr := fmt.Sprintf(":%d", s.port)

	if printMessages {
		fmt.Println()
		fmt.Printf("splitkit collector running on http://localhost:%d\n", s.port)
		fmt.Printf("Ingest token: %s\n", s.token)
		fmt.Println()
		fmt.Println("Press Ctrl+C to stop")
	}

	s.log.Info("collector listening", zap.Int("port", s.port))
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Store() *store.SQLiteStore {
	return s.store
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}
