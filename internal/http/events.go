package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/orchestrator"
)

// EventsController handles inbound change event deliveries.
type EventsController struct {
	orchestrator *orchestrator.Orchestrator
}

// NewEventsController creates a new EventsController.
func NewEventsController(o *orchestrator.Orchestrator) *EventsController {
	return &EventsController{orchestrator: o}
}

// Submit handles POST /api/events
// Accepts a change event delivery and runs it through the sync engine.
// Duplicate deliveries return 200 with duplicate=true; a persistence
// failure returns 503 so the sender redelivers.
func (ec *EventsController) Submit(c *gin.Context) {
	var evt orchestrator.InboundEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		respondBadRequest(c, "invalid event payload: "+err.Error())
		return
	}

	result, err := ec.orchestrator.ProcessEvent(c.Request.Context(), &evt)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrUnknownPlatform), errors.Is(err, orchestrator.ErrUnknownAction):
			respondBadRequest(c, err.Error())
		case orchestrator.IsPersistence(err):
			// Not admitted; the platform should redeliver.
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable, retry delivery"})
		default:
			respondBadRequest(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
