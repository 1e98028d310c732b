package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/logging"
)

type Server struct {
	feedAPI    *FeedAPI
	pollAPI    *PollAPI
	commentAPI *CommentAPI
	logger     *logging.Logger
	server     *http.Server
}

func New(feedAPI *FeedAPI, pollAPI *PollAPI, commentAPI *CommentAPI, logger *logging.Logger) *Server {
	return &Server{
		feedAPI:    feedAPI,
		pollAPI:    pollAPI,
		commentAPI: commentAPI,
		logger:     logger,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	s.feedAPI.RegisterRoutes(mux, s.corsMiddleware)
	s.pollAPI.RegisterRoutes(mux, s.corsMiddleware)
	s.commentAPI.RegisterRoutes(mux, s.corsMiddleware)

	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func viewerID(r *http.Request) string {
	return auth.GetViewerID(r.Context())
}
