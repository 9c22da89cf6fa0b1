package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"courtcal/internal/calendar"
	"courtcal/internal/config"
	"courtcal/internal/ics"
	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

// ClassStore is the persistence collaborator behind the API.
type ClassStore interface {
	schedule.Persister
	calendar.Relocator
	calendar.Remover
	ListClasses(ctx context.Context, clubID string) ([]model.ScheduledClass, error)
}

// Server provides the HTTP API: directory lookup, schedule generation and
// commit, calendar views, relocation, removal and the ICS feed.
type Server struct {
	cfg    *config.Config
	store  ClassStore
	engine *calendar.Engine
	labels weekday.Labeler
	mux    *http.ServeMux

	// One board per configured club; the map is fixed after NewServer.
	boards map[string]*calendar.Board
}

// NewServer constructs a new Server and loads every club's classes.
func NewServer(ctx context.Context, cfg *config.Config, store ClassStore) (*Server, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		engine: engine,
		labels: weekday.Labels(cfg.Locale),
		mux:    http.NewServeMux(),
		boards: make(map[string]*calendar.Board, len(cfg.Clubs)),
	}
	for _, club := range cfg.Clubs {
		s.boards[club.ID] = calendar.NewBoard(engine, nil, store, store)
		if err := s.Reload(ctx, club.ID); err != nil {
			return nil, err
		}
	}
	s.registerRoutes()
	return s, nil
}

// Reload refreshes a club's board from the store.
func (s *Server) Reload(ctx context.Context, clubID string) error {
	b, ok := s.boards[clubID]
	if !ok {
		return fmt.Errorf("%w: %q", config.ErrUnknownClub, clubID)
	}
	classes, err := s.store.ListClasses(ctx, clubID)
	if err != nil {
		return fmt.Errorf("load classes of %s: %w", clubID, err)
	}
	b.Replace(classes)
	return nil
}

// Classes returns the displayed classes of every club.
func (s *Server) Classes() []model.ScheduledClass {
	var out []model.ScheduledClass
	for _, club := range s.cfg.Clubs {
		out = append(out, s.boards[club.ID].Classes()...)
	}
	return out
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials leave it off.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="courtcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/directory", s.handleDirectory)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/commit", s.handleCommit)
	s.mux.HandleFunc("GET /api/calendar/day", s.handleDay)
	s.mux.HandleFunc("GET /api/calendar/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/calendar/month", s.handleMonth)
	s.mux.HandleFunc("POST /api/relocate", s.handleRelocate)
	s.mux.HandleFunc("DELETE /api/classes/{id}", s.handleRemove)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type weekdayDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type directoryResponse struct {
	Clubs    []config.ClubConfig `json:"clubs"`
	Weekdays []weekdayDTO        `json:"weekdays"`
}

func (s *Server) handleDirectory(w http.ResponseWriter, _ *http.Request) {
	resp := directoryResponse{Clubs: s.cfg.Clubs}
	for _, d := range weekday.All {
		resp.Weekdays = append(resp.Weekdays, weekdayDTO{Key: d.Key(), Label: s.labels.Label(d)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// generateRequest selects courts and trainers by id from the club directory.
type generateRequest struct {
	ClubID   string                      `json:"club_id"`
	Config   schedule.BaseClassConfig    `json:"config"`
	Courts   []int                       `json:"courts"`
	Trainers []string                    `json:"trainers"`
	Spec     schedule.MultiplicationSpec `json:"spec"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	club, err := s.cfg.Club(req.ClubID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	pools, err := club.Pools(req.Courts, req.Trainers)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res := schedule.Build(req.Config, pools, req.Spec, s.cfg.Generator)
	appLog.Info("api generate", "club", club.ID, "instances", len(res.Instances), "issues", len(res.Issues))
	writeJSON(w, http.StatusOK, res)
}

type commitRequest struct {
	ClubID    string                   `json:"club_id"`
	Config    schedule.BaseClassConfig `json:"config"`
	Instances []schedule.Instance      `json:"instances"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.boards[req.ClubID]; !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown club %q", req.ClubID))
		return
	}

	ctx := r.Context()
	report, err := schedule.Commit(ctx, s.store, req.ClubID, req.Config, req.Instances)
	if len(report.Succeeded) > 0 {
		if rerr := s.Reload(ctx, req.ClubID); rerr != nil {
			appLog.Error("api commit: reload failed", rerr, "club", req.ClubID)
		}
	}

	status := http.StatusOK
	if errors.Is(err, schedule.ErrNothingCommitted) {
		status = http.StatusConflict
	}
	writeJSON(w, status, report)
}

// boardFor resolves the club query parameter, defaulting to the first
// configured club.
func (s *Server) boardFor(r *http.Request) (*calendar.Board, error) {
	id := r.URL.Query().Get("club")
	if id == "" && len(s.cfg.Clubs) > 0 {
		id = s.cfg.Clubs[0].ID
	}
	b, ok := s.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownClub, id)
	}
	return b, nil
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today in the configured zone.
func (s *Server) dateParam(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		v = time.Now().In(s.cfg.Location()).Format(calendar.DateLayout)
	}
	d, err := calendar.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", v)
	}
	return d, nil
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	b, err := s.boardFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	date, err := s.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b.Day(date))
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	b, err := s.boardFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	date, err := s.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b.Week(date))
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	b, err := s.boardFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	v := r.URL.Query().Get("month")
	if v == "" {
		v = time.Now().In(s.cfg.Location()).Format("2006-01")
	}
	m, err := time.Parse("2006-01", v)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %q (expected YYYY-MM)", v))
		return
	}
	writeJSON(w, http.StatusOK, b.Month(m.Year(), m.Month()))
}

func (s *Server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	b, err := s.boardFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req calendar.RelocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := b.Relocate(r.Context(), req)
	switch {
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	case !res.Accepted:
		writeJSON(w, http.StatusConflict, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	b, err := s.boardFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	id := r.PathValue("id")
	if err := b.Remove(r.Context(), id); err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, calendar.ErrClassNotFound):
			status = http.StatusNotFound
		case errors.Is(err, model.ErrInvalidTransition):
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.ExportString(s.Classes(), s.cfg.Location())))
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: strings.TrimSpace(msg)})
}
