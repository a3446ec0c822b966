package policy

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/validation"
)

// Handler provides HTTP endpoints for operator configuration
type Handler struct {
	store Store
}

// NewHandler creates a new policy handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up admin config routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/admin/config", h.ListConfig)
	r.POST("/admin/config", h.UpdateConfig)
}

// ConfigUpdate is the upsert request/response shape
type ConfigUpdate struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value" binding:"required"`
	Description string `json:"description,omitempty"`
}

// ListConfig handles GET /admin/config
func (h *Handler) ListConfig(c *gin.Context) {
	settings, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}

	out := make([]ConfigUpdate, 0, len(settings))
	for _, s := range settings {
		out = append(out, ConfigUpdate{Key: s.Key, Value: s.Value, Description: s.Description})
	}
	c.JSON(http.StatusOK, out)
}

// UpdateConfig handles POST /admin/config. Values are stored verbatim;
// threshold sanity is deliberately not enforced here (see package doc).
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req ConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	s := &Setting{
		Key:         validation.SanitizeString(req.Key, 128),
		Value:       validation.SanitizeString(req.Value, 1024),
		Description: validation.SanitizeString(req.Description, 1024),
	}
	if err := h.store.Set(c.Request.Context(), s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "update_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Config updated",
		"key":     s.Key,
		"value":   s.Value,
	})
}
