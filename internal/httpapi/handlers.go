package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"trainload/internal/analysis"
	"trainload/internal/service"
	"trainload/internal/store"
)

const maxBodyBytes = 1 << 20

// Accepted request date formats; times keep their wall clock
var dateLayouts = []string{store.DateLayout, "2006-01-02T15:04:05", time.RFC3339}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
	Error  string    `json:"error,omitempty"`
}

// rideRequest is the body of POST /api/rides
type rideRequest struct {
	Date                string   `json:"date"`
	Name                string   `json:"name"`
	DurationSeconds     float64  `json:"duration_seconds"`
	DistanceKm          float64  `json:"distance_km"`
	ElevationGainM      float64  `json:"elevation_gain_m"`
	TrainingStressScore *float64 `json:"training_stress_score"`
	Zone                string   `json:"zone"`
	AveragePowerW       *float64 `json:"average_power_w"`
	AverageHeartRate    *float64 `json:"average_heart_rate"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Time: time.Now().UTC()}
	status := http.StatusOK
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, resp)
}

// GET /api/load?date=YYYY-MM-DD
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	today := s.deps.Load.Today()
	day, err := dateParam(r, "date", today)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.deps.Load.Report(r.Context(), day)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if report.AsOf.Equal(today) {
		s.deps.Metrics.ObserveReport(report)
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/series?from=&to=
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.rangeParams(r, s.deps.Load.Windows().ChartDays)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.deps.Load.Series(r.Context(), from, to)
	if err != nil {
		s.rangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// GET /api/trend?from=&to=
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.rangeParams(r, s.deps.Load.Windows().ChartDays)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	trend, err := s.deps.Load.Trend(r.Context(), from, to)
	if err != nil {
		s.rangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// GET /api/zones?days=N&date=
func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", s.deps.Load.Today())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("days must be a positive integer, got %q", v))
			return
		}
	}

	summary, err := s.deps.Load.Zones(r.Context(), day, days)
	if err != nil {
		s.rangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/snapshots?from=&to=
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.rangeParams(r, service.MonthDays)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snaps, err := s.deps.Snapshots.Between(r.Context(), from, to)
	if err != nil {
		s.rangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// POST /api/snapshots?date= captures one day
func (s *Server) handleCaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", s.deps.Load.Today())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.deps.Snapshots.Capture(r.Context(), day)
	if errors.Is(err, service.ErrDegraded) {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GET /api/rides?limit=N
func (s *Server) handleRecentRides(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and 1000, got %q", v))
			return
		}
		limit = n
	}

	rides, err := s.deps.Rides.Recent(r.Context(), limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

// POST /api/rides
func (s *Server) handleAddRide(w http.ResponseWriter, r *http.Request) {
	var req rideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	var day time.Time
	if req.Date != "" {
		var err error
		if day, err = parseDate(req.Date); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	ride, err := s.deps.Rides.Add(r.Context(), service.ManualRide{
		Date:                day,
		Name:                req.Name,
		DurationSeconds:     req.DurationSeconds,
		DistanceKm:          req.DistanceKm,
		ElevationGainM:      req.ElevationGainM,
		TrainingStressScore: req.TrainingStressScore,
		Zone:                req.Zone,
		AveragePowerW:       req.AveragePowerW,
		AverageHeartRate:    req.AverageHeartRate,
	})
	if errors.Is(err, service.ErrInvalidRide) || errors.Is(err, analysis.ErrUnknownZone) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

// DELETE /api/rides/{id}
func (s *Server) handleDeleteRide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.deps.Rides.Delete(r.Context(), id)
	if errors.Is(err, store.ErrRideNotFound) {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rangeParams reads from/to; to defaults to today and from to the days before it
func (s *Server) rangeParams(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	to, err := dateParam(r, "to", s.deps.Load.Today())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := dateParam(r, "from", to.AddDate(0, 0, -(defaultDays-1)))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (s *Server) rangeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrInvalidRange) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.serverError(w, r, err)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return analysis.Day(t), nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Encoding response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}
