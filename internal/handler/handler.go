package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"srcds-admin/internal/config"
	"srcds-admin/internal/logger"
	"srcds-admin/internal/restriction"
	"srcds-admin/internal/service"
)

var globalConfig *config.Config

// Initialize initializes the handler package with configuration
func Initialize(cfg *config.Config) {
	globalConfig = cfg
}

type ctxKey int

const managerKey ctxKey = 0

// kindCtx resolves the {kind} URL parameter to its restriction manager
func kindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		m, ok := service.Manager(kind)
		if !ok {
			respondError(w, http.StatusNotFound, "unknown restriction kind: "+kind)
			return
		}
		ctx := context.WithValue(r.Context(), managerKey, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func managerFrom(r *http.Request) *restriction.Manager {
	return r.Context().Value(managerKey).(*restriction.Manager)
}

// NewRouter builds the admin API router
func NewRouter(hub *Hub) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: globalConfig.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/{kind}", func(r chi.Router) {
		r.Use(kindCtx)
		r.Post("/restrictions", CreateRestriction)
		r.Get("/restrictions", QueryRestrictions)
		r.Get("/restrictions/active", GetActiveRestrictions)
		r.Get("/restrictions/erroneous", GetErroneousRestrictions)
		r.Get("/restrictions/stock", GetStockOptions)
		r.Post("/restrictions/{id}/review", ReviewRestriction)
		r.Post("/restrictions/{id}/lift", LiftRestriction)
		r.Delete("/restrictions/{id}", RemoveRestriction)
		r.Get("/check", CheckRestricted)
	})

	// Game server bridge: connection admission probe
	r.Get("/api/connect/check", CheckConnect)

	r.Get("/ws", hub.ServeWS)

	return r
}

// Server wraps the admin API HTTP server
type Server struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// NewServer creates the admin API server for the given router
func NewServer(cfg *config.Config, router http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: router,
		},
		certFile: cfg.Server.CertFile,
		keyFile:  cfg.Server.KeyFile,
	}
}

// Start starts the admin API server
func (s *Server) Start() error {
	logger.Infof("Starting HTTP server on %s", s.server.Addr)

	if s.certFile != "" && s.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", s.certFile, s.keyFile)
		return s.server.ListenAndServeTLS(s.certFile, s.keyFile)
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
