package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	gocache "github.com/patrickmn/go-cache"
)

// PlayerStats accumulates one user's results for a single day.
type PlayerStats struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Games  int     `json:"games"`
	Wins   int     `json:"wins"`
	Rate   float64 `json:"winRate"`
}

// StatsBook keeps per-day match statistics in memory, bucketed by
// calendar date, and feeds the leaderboard endpoints.
type StatsBook struct {
	mu   sync.Mutex
	days map[string]map[string]*PlayerStats
}

func newStatsBook() *StatsBook {
	return &StatsBook{
		days: make(map[string]map[string]*PlayerStats),
	}
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Record notes one finished round for a player. Draws count as a game
// for both players and a win for neither.
func (b *StatsBook) Record(user User, won bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	day := dayKey(time.Now())
	bucket, ok := b.days[day]
	if !ok {
		bucket = make(map[string]*PlayerStats)
		b.days[day] = bucket
	}

	stats, ok := bucket[user.ID]
	if !ok {
		stats = &PlayerStats{UserID: user.ID, Name: user.Name}
		bucket[user.ID] = stats
	}

	stats.Games++
	if won {
		stats.Wins++
	}
	stats.Rate = float64(stats.Wins) / float64(stats.Games)
}

// Leaderboard kinds, matching the HTTP routes.
const (
	boardGames   = "games"
	boardWins    = "wins"
	boardWinRate = "win-rate"
)

// Leaderboard returns today's top players ranked by the given kind.
func (b *StatsBook) Leaderboard(kind string, limit int) []PlayerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]PlayerStats, 0, len(b.days[dayKey(time.Now())]))
	for _, stats := range b.days[dayKey(time.Now())] {
		entries = append(entries, *stats)
	}

	sort.Slice(entries, func(i, j int) bool {
		x, y := entries[i], entries[j]
		switch kind {
		case boardWins:
			if x.Wins != y.Wins {
				return x.Wins > y.Wins
			}
		case boardWinRate:
			if x.Rate != y.Rate {
				return x.Rate > y.Rate
			}
		default:
			if x.Games != y.Games {
				return x.Games > y.Games
			}
		}
		return x.UserID < y.UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries
}

// serveLeaderboard serves /leaderboard/:board with a short-lived
// response cache, since the rankings only need to be roughly live.
func serveLeaderboard(cfg *Config, book *StatsBook, errs chan<- error) httprouter.Handle {
	responses := gocache.New(cfg.cacheTTL, 2*cfg.cacheTTL)

	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		board := p.ByName("board")
		switch board {
		case boardGames, boardWins, boardWinRate:
		default:
			http.NotFound(w, r)
			return
		}

		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		key := board + "?" + strconv.Itoa(limit)
		body, found := responses.Get(key)
		if !found {
			encoded, err := json.Marshal(book.Leaderboard(board, limit))
			if err != nil {
				http.Error(w, "failed to encode leaderboard", http.StatusInternalServerError)
				return
			}
			responses.SetDefault(key, encoded)
			body = encoded
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		if _, err := w.Write(body.([]byte)); err != nil {
			errs <- err

			return
		}
	}
}
