package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/entities"
	"github.com/example/syncbridge/internal/orchestrator"
	"github.com/example/syncbridge/internal/tasks"
)

// DeadLettersController handles dead letter inspection and replay.
type DeadLettersController struct {
	store        *deadletters.Repository
	orchestrator *orchestrator.Orchestrator
	taskClient   *tasks.Client
}

// NewDeadLettersController creates a new DeadLettersController.
func NewDeadLettersController(store *deadletters.Repository, o *orchestrator.Orchestrator, taskClient *tasks.Client) *DeadLettersController {
	return &DeadLettersController{store: store, orchestrator: o, taskClient: taskClient}
}

// List handles GET /api/deadletters
// Supports ?status=failed|replayed and limit/offset pagination.
func (dc *DeadLettersController) List(c *gin.Context) {
	var status entities.DeadLetterStatus
	switch s := c.Query("status"); s {
	case "":
	case string(entities.DeadLetterFailed), string(entities.DeadLetterReplayed):
		status = entities.DeadLetterStatus(s)
	default:
		respondBadRequest(c, "invalid status filter")
		return
	}

	limit, offset := parsePagination(c)
	letters, total, err := dc.store.List(status, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list dead letters")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    letters,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(letters)) < total,
	})
}

// Get handles GET /api/deadletters/:id
func (dc *DeadLettersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	letter, err := dc.store.GetByID(id)
	if err != nil {
		respondNotFound(c, "dead letter")
		return
	}
	c.JSON(http.StatusOK, letter)
}

// Replay handles POST /api/deadletters/:id/replay
// Re-submits the stored payload through the sync engine synchronously.
func (dc *DeadLettersController) Replay(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := dc.orchestrator.Replay(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyReplayed) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, err, "replay dead letter")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReplayAll handles POST /api/deadletters/replay
// Enqueues a background replay task per failed letter.
func (dc *DeadLettersController) ReplayAll(c *gin.Context) {
	ids, err := dc.store.ListFailedIDs()
	if err != nil {
		respondInternalError(c, err, "list failed dead letters")
		return
	}
	if len(ids) == 0 {
		respondSuccess(c, "no failed dead letters to replay")
		return
	}

	if dc.taskClient == nil {
		// No task queue: replay inline and report per-letter outcomes.
		results := make([]*orchestrator.ReplayResult, 0, len(ids))
		for _, id := range ids {
			result, replayErr := dc.orchestrator.Replay(c.Request.Context(), id)
			if replayErr != nil {
				result = &orchestrator.ReplayResult{DeadLetterID: id, Error: replayErr.Error()}
			}
			results = append(results, result)
		}
		c.JSON(http.StatusOK, gin.H{"replayed": results})
		return
	}

	replayTasks := make([]tasks.ReplayDeadLetterTask, 0, len(ids))
	for _, id := range ids {
		replayTasks = append(replayTasks, tasks.ReplayDeadLetterTask{DeadLetterID: id})
	}
	for _, task := range replayTasks {
		if _, err := dc.taskClient.Add(task).Save(); err != nil {
			respondInternalError(c, err, "enqueue replay task")
			return
		}
	}

	respondAccepted(c, "replay tasks enqueued", gin.H{"count": len(ids)})
}
