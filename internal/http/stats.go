package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/database/ledger"
)

// StatsController reports sync engine throughput counters.
type StatsController struct {
	ledger      *ledger.Repository
	deadLetters *deadletters.Repository
}

// NewStatsController creates a new StatsController.
func NewStatsController(ledgerRepo *ledger.Repository, deadLetterRepo *deadletters.Repository) *StatsController {
	return &StatsController{ledger: ledgerRepo, deadLetters: deadLetterRepo}
}

// StatsResponse summarises ledger and dead letter volumes.
type StatsResponse struct {
	EventsPending       int64 `json:"events_pending"`
	EventsProcessed     int64 `json:"events_processed"`
	EventsFailed        int64 `json:"events_failed"`
	DeadLettersFailed   int64 `json:"dead_letters_failed"`
	DeadLettersReplayed int64 `json:"dead_letters_replayed"`
}

// Get handles GET /api/stats
func (sc *StatsController) Get(c *gin.Context) {
	pending, processed, failed, err := sc.ledger.Stats()
	if err != nil {
		respondInternalError(c, err, "ledger stats")
		return
	}

	dlFailed, dlReplayed, err := sc.deadLetters.CountByStatus()
	if err != nil {
		respondInternalError(c, err, "dead letter stats")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		EventsPending:       pending,
		EventsProcessed:     processed,
		EventsFailed:        failed,
		DeadLettersFailed:   dlFailed,
		DeadLettersReplayed: dlReplayed,
	})
}

// Recent handles GET /api/events/recent
// Returns the most recent ledger entries for debugging relay behaviour.
func (sc *StatsController) Recent(c *gin.Context) {
	limit, _ := parsePagination(c)
	events, err := sc.ledger.ListRecent(limit)
	if err != nil {
		respondInternalError(c, err, "recent events")
		return
	}
	c.JSON(http.StatusOK, events)
}
