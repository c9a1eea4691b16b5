package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	powerengine "powertrack/contexts/progression/power-engine"
	powererrors "powertrack/contexts/progression/power-engine/domain/errors"
	powerhttp "powertrack/contexts/progression/power-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "powertrack/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger
	addr   string
	power  powerengine.Module
}

func New(power powerengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		power:  power,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/power/habits/{habit_id}/complete", s.handleCompleteHabit)
	s.mux.HandleFunc("POST /v1/power/tasks/{task_id}/complete", s.handleCompleteTask)
	s.mux.HandleFunc("POST /v1/power/off-days", s.handleMarkOffDay)
	s.mux.HandleFunc("GET /v1/power/state", s.handleGetPowerState)
	s.mux.HandleFunc("GET /v1/power/ladder", s.handleGetTierLadder)
	s.mux.HandleFunc("GET /v1/power/history", s.handleGetPowerHistory)
	s.mux.HandleFunc("GET /v1/power/habits/{habit_id}/stats", s.handleGetHabitStats)
	s.mux.HandleFunc("GET /v1/power/habits/{habit_id}/calendar", s.handleGetHabitCalendar)
	s.mux.HandleFunc("GET /v1/power/habits/calendar", s.handleGetMonthCalendar)
	s.mux.HandleFunc("GET /v1/power/analytics/weekly", s.handleGetWeeklySummary)
	s.mux.HandleFunc("GET /v1/power/analytics/category-breakdown", s.handleGetCategoryBreakdown)
	s.mux.HandleFunc("PUT /v1/power/settings", s.handleUpdateSettings)
	s.mux.HandleFunc("POST /v1/power/admin/users/{user_id}/verify", s.handleVerifyLedger)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req powerhttp.CompleteHabitRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	resp, err := s.power.Handler.CompleteHabitHandler(r.Context(), userID, r.PathValue("habit_id"), req)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req powerhttp.CompleteTaskRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	resp, err := s.power.Handler.CompleteTaskHandler(
		r.Context(),
		userID,
		r.PathValue("task_id"),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkOffDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req powerhttp.MarkOffDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePowerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.power.Handler.MarkOffDayHandler(r.Context(), userID, req)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPowerState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.power.Handler.GetPowerStateHandler(r.Context(), userID)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTierLadder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.power.Handler.GetTierLadderHandler(r.Context(), strings.TrimSpace(r.Header.Get("X-User-Id")))
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPowerHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			writePowerError(w, http.StatusBadRequest, "invalid_days", "days must be a non-negative integer")
			return
		}
		days = value
	}

	resp, err := s.power.Handler.GetPowerHistoryHandler(r.Context(), userID, days)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHabitStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.power.Handler.GetHabitStatsHandler(r.Context(), userID, r.PathValue("habit_id"))
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHabitCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}
	resp, err := s.power.Handler.GetHabitCalendarHandler(r.Context(), userID, r.PathValue("habit_id"), year, month)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMonthCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}
	resp, err := s.power.Handler.GetMonthCalendarHandler(r.Context(), userID, year, month)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWeeklySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.power.Handler.GetWeeklySummaryHandler(r.Context(), userID)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			writePowerError(w, http.StatusBadRequest, "invalid_days", "days must be a non-negative integer")
			return
		}
		days = value
	}
	resp, err := s.power.Handler.GetCategoryBreakdownHandler(r.Context(), userID, days)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req powerhttp.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePowerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.power.Handler.UpdateSettingsHandler(r.Context(), userID, req)
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	resp, err := s.power.Handler.VerifyLedgerHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writePowerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePowerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, powererrors.ErrInvalidInput):
		writePowerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, powererrors.ErrNotFound):
		writePowerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, powererrors.ErrNotDue):
		writePowerError(w, http.StatusUnprocessableEntity, "habit_not_due", err.Error())
	case errors.Is(err, powererrors.ErrFutureDate):
		writePowerError(w, http.StatusUnprocessableEntity, "future_date", err.Error())
	case errors.Is(err, powererrors.ErrConflict):
		writePowerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, powererrors.ErrConcurrentUpdate):
		writePowerError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, powererrors.ErrInvariantViolation):
		writePowerError(w, http.StatusLocked, "ledger_halted", err.Error())
	case errors.Is(err, powererrors.ErrLockUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		writePowerError(w, http.StatusServiceUnavailable, "unavailable", "ledger is busy, retry later")
	default:
		writePowerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePowerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, powerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writePowerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

// parseYearMonth reads the required year and month query parameters.
func parseYearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writePowerError(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writePowerError(w, http.StatusBadRequest, "invalid_month", "month must be an integer")
		return 0, 0, false
	}
	return year, month, true
}

// decodeOptionalJSON accepts an empty body as the zero request.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		writePowerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}
