package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/borealis/internal/cache"
	"github.com/fortuna/borealis/internal/odds"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/service"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/team"
	"github.com/fortuna/borealis/internal/window"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db      *store.Database
	cache   *cache.RedisCache
	stats   *service.StatsService
	goalies *service.GoalieService
	lines   *service.LineService
	games   *service.GameService
}

// NewHandler creates a new handler. rc and pub may be nil; health then
// reports the cache as absent and windows go unpublished.
func NewHandler(
	db *store.Database,
	rc *cache.RedisCache,
	resolver *window.Resolver,
	matcher *reconciliation.Matcher,
	dir team.Directory,
	pub *publisher.StreamPublisher,
) *Handler {
	return &Handler{
		db:      db,
		cache:   rc,
		stats:   service.NewStatsService(db, resolver, pub),
		goalies: service.NewGoalieService(db, rc),
		lines:   service.NewLineService(db, matcher),
		games:   service.NewGameService(db, dir),
	}
}

// HealthCheck reports database and cache health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{"database": "healthy"}
	status := http.StatusOK

	if err := h.db.HealthCheck(); err != nil {
		components["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		components["cache"] = "healthy"
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			components["cache"] = err.Error()
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"status":     healthLabel(status),
		"service":    "borealis",
		"components": components,
	})
}

func healthLabel(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}

// GetTeamStats aggregates team lines over a window and returns the board
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	req, situation, err := parseWindowQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid window parameters", err)
		return
	}

	board, err := h.stats.TeamWindow(r.Context(), req, situation)
	if err != nil {
		respondWindowError(w, "Failed to aggregate team stats", err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// GetStoredTeamWindows returns the persisted window snapshots without
// recomputing
func (h *Handler) GetStoredTeamWindows(w http.ResponseWriter, r *http.Request) {
	situation := situationParam(r)

	windows, err := h.stats.StoredTeamWindows(r.Context(), situation)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stored windows", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"situation": situation,
		"windows":   windows,
	})
}

// GetSkaterStats aggregates skater lines over a window and returns the board
func (h *Handler) GetSkaterStats(w http.ResponseWriter, r *http.Request) {
	req, situation, err := parseWindowQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid window parameters", err)
		return
	}

	board, err := h.stats.SkaterWindow(r.Context(), req, situation)
	if err != nil {
		respondWindowError(w, "Failed to aggregate skater stats", err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// GetGoalieRolling returns one goalie's aggregated recent form
func (h *Handler) GetGoalieRolling(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	asOf, err := dateParam(r, "as_of", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	nGames := intParam(r, "games", 10, 1, 82)

	form, err := h.goalies.Rolling(r.Context(), player, asOf, nGames)
	if err != nil {
		if errors.Is(err, service.ErrNoGames) {
			respondError(w, http.StatusNotFound, "No games found for goalie", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to aggregate goalie form", err)
		return
	}

	respondJSON(w, http.StatusOK, form)
}

// GetGoalieComparison ranks every qualifying goalie's recent form
func (h *Handler) GetGoalieComparison(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	nGames := intParam(r, "games", 10, 1, 82)
	minGames := intParam(r, "min_games", 5, 1, 82)

	comparison, err := h.goalies.Comparison(r.Context(), asOf, nGames, minGames)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build goalie comparison", err)
		return
	}

	respondJSON(w, http.StatusOK, comparison)
}

// GetLines returns the near-even prop board for a date and market
func (h *Handler) GetLines(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	market := r.URL.Query().Get("market")
	if market == "" {
		market = odds.MarketShotsOnGoal
	}

	board, err := h.lines.Board(r.Context(), date, market)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build line board", err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// GetMoneylines returns the stored moneyline board for a date
func (h *Handler) GetMoneylines(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	board, err := h.lines.Moneylines(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build moneyline board", err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// GetPlayerLines returns a player's line history on a market. The player
// path segment is fuzzy-matched against the names the books actually quote.
func (h *Handler) GetPlayerLines(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	to, err := dateParam(r, "to", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	from, err := dateParam(r, "from", to.AddDate(0, 0, -30))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	if date := r.URL.Query().Get("date"); date != "" {
		single, err := time.Parse("2006-01-02", date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		from, to = single, single
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "from date is after to date", nil)
		return
	}

	market := r.URL.Query().Get("market")
	if market == "" {
		market = odds.MarketShotsOnGoal
	}

	history, err := h.lines.PlayerHistory(r.Context(), player, market, from, to)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, "Player not quoted on market", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch line history", err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetGamesByDate returns the slate for a date
func (h *Handler) GetGamesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	games, err := h.games.GetGamesByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"games": games,
		"count": len(games),
	})
}

// GetGame returns a single game by league id
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.Atoi(mux.Vars(r)["gameID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			respondError(w, http.StatusNotFound, "Game not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch game", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetTeamSchedule returns a team's games across a date range
func (h *Handler) GetTeamSchedule(w http.ResponseWriter, r *http.Request) {
	tricode := mux.Vars(r)["team"]

	// Default window: a month back, a week ahead.
	today := season.Day(time.Now().UTC())
	to, err := dateParam(r, "to", today.AddDate(0, 0, 7))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	from, err := dateParam(r, "from", today.AddDate(0, 0, -30))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "from date is after to date", nil)
		return
	}

	schedule, err := h.games.GetTeamSchedule(r.Context(), tricode, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch team schedule", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team":  tricode,
		"games": schedule,
		"count": len(schedule),
	})
}

// CleanupStaleGames marks old live games as final
func (h *Handler) CleanupStaleGames(w http.ResponseWriter, r *http.Request) {
	count, err := h.games.CleanupStaleGames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to cleanup stale games", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Stale games cleaned up",
		"games_updated": count,
	})
}

// parseWindowQuery validates the shared window parameters. Dates are
// re-validated here so malformed input turns into a 400 before the
// resolver sees it.
func parseWindowQuery(r *http.Request) (window.Request, string, error) {
	q := r.URL.Query()

	req := window.Request{
		EndDate:   q.Get("end_date"),
		StartDate: q.Get("start_date"),
	}
	if req.EndDate == "" {
		req.EndDate = time.Now().UTC().Format(window.DateLayout)
	}
	end, err := time.Parse(window.DateLayout, req.EndDate)
	if err != nil {
		return window.Request{}, "", err
	}
	if req.StartDate != "" {
		start, err := time.Parse(window.DateLayout, req.StartDate)
		if err != nil {
			return window.Request{}, "", err
		}
		if start.After(end) {
			return window.Request{}, "", errors.New("start_date is after end_date")
		}
	}

	if raw := q.Get("last_n_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 3650 {
			return window.Request{}, "", errors.New("last_n_days must be an integer between 0 and 3650")
		}
		req.LastNDays = n
	}

	seasonType, err := season.ParseType(q.Get("season_type"))
	if err != nil {
		return window.Request{}, "", err
	}
	req.SeasonType = seasonType

	return req, situationParam(r), nil
}

func situationParam(r *http.Request) string {
	if sit := r.URL.Query().Get("situation"); sit != "" {
		return sit
	}
	return "all"
}

// dateParam parses a YYYY-MM-DD query parameter, day-truncated UTC.
func dateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return season.Day(fallback), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

// intParam parses an integer query parameter, silently clamping to the
// default when absent or out of bounds.
func intParam(r *http.Request, name string, fallback, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return fallback
	}
	return n
}

// respondWindowError maps window resolution failures onto status codes: a
// date outside every configured season is a 422, anything else a 500.
func respondWindowError(w http.ResponseWriter, message string, err error) {
	var unresolved *window.UnresolvedSeasonError
	if errors.As(err, &unresolved) {
		respondError(w, http.StatusUnprocessableEntity, "Date outside configured seasons", err)
		return
	}
	respondError(w, http.StatusInternalServerError, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
