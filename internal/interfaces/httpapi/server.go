package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"oraclewatch/internal/application/service"
	"oraclewatch/internal/application/usecase/monitor"
	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/metrics"
)

// StateReader is the read side of the poller.
type StateReader interface {
	Comparison() []domain.ComparisonRow
	Feeds(o domain.Oracle) (monitor.SourceSnapshot, bool)
	RefreshedAt() time.Time
}

type Refresher interface {
	Refresh()
}

type Alerts interface {
	CreateAlert(ctx context.Context, in service.AlertInput) (*domain.Alert, error)
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
}

type History interface {
	Series(ctx context.Context, asset string, tf domain.Timeframe) (domain.HistorySeries, error)
}

type Deps struct {
	State     StateReader
	Refresher Refresher
	Alerts    Alerts
	History   History      // optional
	Live      http.Handler // optional websocket endpoint
}

type Server struct {
	deps   Deps
	router *mux.Router
}

func New(deps Deps) *Server {
	s := &Server{deps: deps, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.Use(metrics.Middleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/comparison", s.handleComparison).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/oracles/{oracle}/feeds", s.handleFeeds).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleCreateAlert).Methods(http.MethodPost)
	if s.deps.History != nil {
		api.HandleFunc("/history/{asset}", s.handleHistory).Methods(http.MethodGet)
	}

	if s.deps.Live != nil {
		r.Handle("/ws", s.deps.Live)
	}
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

type comparisonResponse struct {
	RefreshedAt time.Time              `json:"refreshedAt"`
	Rows        []domain.ComparisonRow `json:"rows"`
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	rows := s.deps.State.Comparison()
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if strings.Contains(strings.ToLower(row.AssetDisplay), q) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	writeJSON(w, http.StatusOK, comparisonResponse{RefreshedAt: s.deps.State.RefreshedAt(), Rows: rows})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Refresher.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	o, ok := domain.ParseOracle(mux.Vars(r)["oracle"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown oracle")
		return
	}
	snap, ok := s.deps.State.Feeds(o)
	if !ok {
		writeError(w, http.StatusNotFound, "no data for oracle")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.deps.Alerts.ListAlerts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list alerts failed")
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// alertRequest accepts the threshold as a JSON number or string.
const maxAlertBody = 8 << 10

type alertRequest struct {
	Asset     string          `json:"asset"`
	Oracle    string          `json:"oracle"`
	Threshold json.RawMessage `json:"threshold"`
	Type      string          `json:"type"`
	Notify    domain.Notify   `json:"notify"`
}

func (req alertRequest) threshold() string {
	raw := strings.TrimSpace(string(req.Threshold))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(req.Threshold, &s); err == nil {
		return s
	}
	return raw
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAlertBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	a, err := s.deps.Alerts.CreateAlert(r.Context(), service.AlertInput{
		Asset:     req.Asset,
		Oracle:    req.Oracle,
		Threshold: req.threshold(),
		Type:      req.Type,
		Notify:    req.Notify,
	})
	switch {
	case err == nil:
		metrics.ObserveAlert("created")
		writeJSON(w, http.StatusCreated, a)
	case errors.Is(err, domain.ErrThresholdRequired), errors.Is(err, domain.ErrInvalidAlert):
		metrics.ObserveAlert("invalid")
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		metrics.ObserveAlert("failed")
		log.Error().Err(err).Msg("create alert failed")
		writeError(w, http.StatusInternalServerError, "failed to save alert")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tf, ok := domain.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if !ok {
		writeError(w, http.StatusBadRequest, "timeframe must be daily, weekly or monthly")
		return
	}
	series, err := s.deps.History.Series(r.Context(), mux.Vars(r)["asset"], tf)
	if err != nil {
		log.Error().Err(err).Msg("history series failed")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
