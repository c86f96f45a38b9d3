package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"football-trends/analysis"
	"football-trends/apperr"
	"football-trends/footballapi"
	"football-trends/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	entry := s.log.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	msg := err.Error()
	var appErr *apperr.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeJSON(w, status, map[string]interface{}{
		"error": msg,
		"code":  apperr.Code(err),
	})
}

// queryInt reads an optional integer parameter. Absent means def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Invalid(name + " must be a non-negative integer")
	}
	return v, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperr.Invalid(name + " must be a YYYY-MM-DD date")
	}
	return t, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || v <= 0 {
		return 0, apperr.Invalid(name + " must be a positive integer")
	}
	return v, nil
}

// leagueSeason reads the league/season pair shared by most endpoints.
// Zero values fall back to the configured defaults in the service.
func leagueSeason(r *http.Request) (int, int, error) {
	league, err := queryInt(r, "league", 0)
	if err != nil {
		return 0, 0, err
	}
	season, err := queryInt(r, "season", 0)
	if err != nil {
		return 0, 0, err
	}
	return league, season, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Unix(),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"environment": s.config.Environment,
		"database":    s.history != nil,
		"cache":       s.cache.Size(),
		"ws_clients":  s.wsHub.ClientCount(),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	p := s.analysis.Model().Params()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features":             analysis.Features,
		"weights":              p.Weights,
		"goal_denominator":     p.GoalDenominator,
		"conceded_denominator": p.ConcededDenominator,
		"key_players":          p.KeyPlayers,
		"draw_threshold":       p.DrawThreshold,
		"form_window":          p.FormWindow,
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	league, season, err := leagueSeason(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	teams, err := s.analysis.Teams(r.Context(), league, season)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

func (s *Server) handleTeamReport(w http.ResponseWriter, r *http.Request) {
	team, err := pathInt(r, "team_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	league, season, err := leagueSeason(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.analysis.TeamReport(r.Context(), services.TeamQuery{
		League: league,
		Season: season,
		Team:   team,
		Side:   analysis.Side(strings.ToLower(r.URL.Query().Get("side"))),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	league, season, err := leagueSeason(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := services.CompareQuery{League: league, Season: season}
	if q.Home, err = queryInt(r, "home", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Away, err = queryInt(r, "away", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.HeadToHead, err = queryInt(r, "h2h", 0); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.analysis.Compare(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	league, season, err := leagueSeason(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := footballapi.FixtureQuery{
		League: league,
		Season: season,
		Status: r.URL.Query().Get("status"),
	}
	if q.Team, err = queryInt(r, "team", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Next, err = queryInt(r, "next", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Last, err = queryInt(r, "last", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.From, err = queryDate(r, "from"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.To, err = queryDate(r, "to"); err != nil {
		s.writeError(w, r, err)
		return
	}

	fixtures, err := s.analysis.UpcomingFixtures(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

func (s *Server) handleFixturePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "fixture_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.analysis.PredictFixture(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, r, apperr.New("unavailable", "prediction history requires a database", apperr.ErrUnavailable))
		return
	}

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit == 0 || limit > 100 {
		limit = 50
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	team, err := queryInt(r, "team", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	predictions, err := s.history.Recent(r.Context(), limit, offset, team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	var removed int
	if prefix == "" {
		removed = s.cache.Size()
		s.cache.Clear()
	} else {
		removed = s.cache.DeletePrefix(prefix)
	}
	s.log.WithField("removed", removed).Info("cache cleared")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}
