package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/database/syncconfig"
	"github.com/example/syncbridge/internal/entities"
)

// SyncConfigController handles runtime tunable inspection and updates.
type SyncConfigController struct {
	store *syncconfig.Repository
}

// NewSyncConfigController creates a new SyncConfigController.
func NewSyncConfigController(store *syncconfig.Repository) *SyncConfigController {
	return &SyncConfigController{store: store}
}

// List handles GET /api/config
func (sc *SyncConfigController) List(c *gin.Context) {
	configs, err := sc.store.List()
	if err != nil {
		respondInternalError(c, err, "list sync configs")
		return
	}
	c.JSON(http.StatusOK, configs)
}

// Update handles PUT /api/config/:key
// Takes effect on the next processed event, no restart needed.
func (sc *SyncConfigController) Update(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "value is required")
		return
	}

	if err := validateConfigValue(key, req.Value); err != "" {
		respondBadRequest(c, err)
		return
	}

	if err := sc.store.Set(key, req.Value); err != nil {
		respondNotFound(c, "config key")
		return
	}

	updated, err := sc.store.Get(key)
	if err != nil {
		respondInternalError(c, err, "reload sync config")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// validateConfigValue checks a proposed value against its key's expected
// shape. Returns an empty string when valid.
func validateConfigValue(key, value string) string {
	switch key {
	case entities.ConfigKeySourceOfTruth:
		if !entities.Platform(value).Valid() {
			return "source_of_truth must be a known platform"
		}
	case entities.ConfigKeyMaxRelayRetries, entities.ConfigKeyLoopDepthLimit, entities.ConfigKeyProcessedRetention:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return key + " must be a positive integer"
		}
	case entities.ConfigKeyRetryBackoff, entities.ConfigKeyDispatchTimeout, entities.ConfigKeyEchoWindow:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return key + " must be a positive duration like 30s or 5m"
		}
	}
	return ""
}
