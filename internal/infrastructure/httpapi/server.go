package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
	"inklessnews/internal/usecase"
)

// Server exposes the delivery trigger surface: test and immediate
// deliveries, delivery history, and next-delivery info. Authentication
// is handled upstream; the subscriber is selected via the X-User-ID
// header (or user_id query parameter).
type Server struct {
	pipeline   *usecase.Pipeline
	deliveries ports.DeliveryLog
	settings   ports.SettingsStore
	location   *time.Location
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer wires the trigger API.
func NewServer(
	addr string,
	pipeline *usecase.Pipeline,
	deliveries ports.DeliveryLog,
	settings ports.SettingsStore,
	location *time.Location,
	logger *slog.Logger,
) *Server {
	if location == nil {
		location = time.UTC
	}

	s := &Server{
		pipeline:   pipeline,
		deliveries: deliveries,
		settings:   settings,
		location:   location,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/delivery/test", s.handleTestDelivery).Methods(http.MethodPost)
	router.HandleFunc("/api/delivery/now", s.handleDeliverNow).Methods(http.MethodPost)
	router.HandleFunc("/api/delivery/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/delivery/next", s.handleNextDelivery).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	return s
}

// ListenAndServe runs the HTTP listener until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTestDelivery(w http.ResponseWriter, r *http.Request) {
	s.deliver(w, r, usecase.RunOptions{Test: true})
}

func (s *Server) handleDeliverNow(w http.ResponseWriter, r *http.Request) {
	s.deliver(w, r, usecase.RunOptions{})
}

func (s *Server) deliver(w http.ResponseWriter, r *http.Request, opts usecase.RunOptions) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	result, err := s.pipeline.Deliver(r.Context(), userID, opts)
	if err != nil {
		var confErr *domain.ConfigurationError
		if errors.As(err, &confErr) {
			s.writeError(w, http.StatusBadRequest, confErr.Reason)
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to send delivery: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Delivery sent successfully",
		"articlesCount": result.Record.ArticlesCount,
		"format":        result.Record.Format,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	records, err := s.deliveries.List(r.Context(), userID)
	if err != nil {
		s.log().Error("cannot list delivery history", "user", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch delivery history")
		return
	}

	type historyEntry struct {
		ID            int64  `json:"id"`
		Date          string `json:"date"`
		Status        string `json:"status"`
		ArticlesCount int    `json:"articlesCount"`
		Format        string `json:"format"`
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			ID:            rec.ID,
			Date:          rec.Date.Format(time.RFC3339),
			Status:        string(rec.Status),
			ArticlesCount: rec.ArticlesCount,
			Format:        string(rec.Format),
		})
	}

	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleNextDelivery(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	settings, err := s.settings.Get(r.Context(), userID)
	if err != nil {
		s.log().Error("cannot load settings", "user", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch next delivery info")
		return
	}

	if !settings.Active || settings.Email == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	next := nextDeliveryTime(time.Now().In(s.location), settings.DeliveryHour)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"date":   next.Format(time.RFC3339),
		"time":   fmt.Sprintf("%d:00 AM", settings.DeliveryHour),
		"format": string(settings.Format),
	})
}

// nextDeliveryTime returns the next Sunday at the configured hour,
// rolling a full week when that moment has already passed today.
func nextDeliveryTime(now time.Time, hour int) time.Time {
	daysAhead := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	if raw == "" {
		s.writeError(w, http.StatusUnauthorized, "missing user identity")
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}

	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("cannot encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
