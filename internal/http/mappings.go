package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/database/mappings"
)

// MappingsController handles entity mapping inspection and pause control.
type MappingsController struct {
	store *mappings.Repository
}

// NewMappingsController creates a new MappingsController.
func NewMappingsController(store *mappings.Repository) *MappingsController {
	return &MappingsController{store: store}
}

// List handles GET /api/mappings
func (mc *MappingsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	rows, total, err := mc.store.List(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list mappings")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    rows,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(rows)) < total,
	})
}

// Get handles GET /api/mappings/:id
func (mc *MappingsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	mapping, err := mc.store.GetByID(id)
	if err != nil {
		respondNotFound(c, "mapping")
		return
	}
	c.JSON(http.StatusOK, mapping)
}

// Disable handles POST /api/mappings/:id/disable
// Paused pairs drop events instead of relaying them.
func (mc *MappingsController) Disable(c *gin.Context) {
	mc.setEnabled(c, false)
}

// Enable handles POST /api/mappings/:id/enable
func (mc *MappingsController) Enable(c *gin.Context) {
	mc.setEnabled(c, true)
}

func (mc *MappingsController) setEnabled(c *gin.Context, enabled bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	mapping, err := mc.store.GetByID(id)
	if err != nil {
		respondNotFound(c, "mapping")
		return
	}

	if enabled {
		err = mc.store.Enable(mapping)
	} else {
		err = mc.store.Disable(mapping)
	}
	if err != nil {
		respondInternalError(c, err, "update mapping")
		return
	}

	c.JSON(http.StatusOK, mapping)
}
