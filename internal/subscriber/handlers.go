package subscriber

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for subscriber management
type Handler struct {
	store Store
}

// NewHandler creates a new subscriber handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up subscriber routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/subscribers", h.CreateSubscriber)
	r.GET("/subscribers", h.ListSubscribers)
	r.PUT("/subscribers/:id/preferences", h.UpdatePreferences)
}

// CreateSubscriberRequest registers a new alert recipient
type CreateSubscriberRequest struct {
	Email       string          `json:"email" binding:"required,email"`
	Preferences json.RawMessage `json:"preferences"`
}

// CreateSubscriber handles POST /subscribers
func (h *Handler) CreateSubscriber(c *gin.Context) {
	var req CreateSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	sub := &Subscriber{Email: req.Email, Preferences: req.Preferences}
	if err := h.store.Create(c.Request.Context(), sub); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "email_taken",
				"message": "A subscriber with this email already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "create_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// ListSubscribers handles GET /subscribers
func (h *Handler) ListSubscribers(c *gin.Context) {
	subs, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}
	if subs == nil {
		subs = []*Subscriber{}
	}
	c.JSON(http.StatusOK, subs)
}

// UpdatePreferences handles PUT /subscribers/:id/preferences. The body is
// the full preference document; it must at least be valid JSON.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Subscriber id must be an integer",
		})
		return
	}

	var prefs json.RawMessage
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Preferences must be a JSON document",
		})
		return
	}

	if err := h.store.UpdatePreferences(c.Request.Context(), id, prefs); err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Subscriber not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "update_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated"})
}
