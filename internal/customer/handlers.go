package customer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/validation"
)

// ActivityProvider surfaces per-customer transaction aggregates for listings.
// Implemented by the ledger store; injected here to keep this package free of
// a ledger dependency.
type ActivityProvider interface {
	CustomerActivity(ctx context.Context, customerID int64) (txnCount int, lastActivity *time.Time, avgScore float64, err error)
}

// Risk filter cutoffs for customer listings: "high" risk is an average score
// above 50%, "safe" is at or below 10%.
const (
	highRiskCutoff = 0.5
	safeRiskCutoff = 0.1
)

// Handler provides HTTP endpoints for customer management
type Handler struct {
	store    Store
	activity ActivityProvider
}

// NewHandler creates a new customer handler
func NewHandler(store Store, activity ActivityProvider) *Handler {
	return &Handler{store: store, activity: activity}
}

// RegisterRoutes sets up customer routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/ids", h.ListActiveIDs)
	r.POST("/customers/:id/freeze", h.ToggleFreeze)
	r.POST("/customers/:id/deactivate", h.Deactivate)
}

// CreateCustomerRequest for registering a card holder
type CreateCustomerRequest struct {
	FullName     string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	CardType     string `json:"card_type"`
	CardLastFour string `json:"card_last_four"`
}

// CreateCustomer handles POST /customers
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	if req.CardType == "" {
		req.CardType = "Visa"
	}
	if req.CardLastFour == "" {
		req.CardLastFour = "1234"
	}

	cust := &Customer{
		FullName:     validation.SanitizeString(req.FullName, 256),
		Email:        validation.SanitizeString(req.Email, 256),
		CardType:     validation.SanitizeString(req.CardType, 32),
		CardLastFour: validation.SanitizeString(req.CardLastFour, 4),
	}
	if err := h.store.Create(c.Request.Context(), cust); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "email_taken",
				"message": "A customer with this email already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "create_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Customer created",
		"id":      cust.ID,
	})
}

// CustomerView is a customer decorated with transaction aggregates
type CustomerView struct {
	ID               int64   `json:"id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	CardType         string  `json:"card_type"`
	CardLastFour     string  `json:"card_last_four"`
	RiskScore        float64 `json:"risk_score"`
	LastActivity     string  `json:"last_activity"`
	TransactionCount int     `json:"transaction_count"`
	Frozen           bool    `json:"is_frozen"`
	Active           bool    `json:"is_active"`
}

// ListCustomers handles GET /customers?search=&risk_filter=high|safe
func (h *Handler) ListCustomers(c *gin.Context) {
	ctx := c.Request.Context()

	customers, err := h.store.List(ctx, Query{Search: c.Query("search")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}

	riskFilter := c.Query("risk_filter")
	results := make([]CustomerView, 0, len(customers))
	for _, cust := range customers {
		count, lastActivity, avgScore, err := h.activity.CustomerActivity(ctx, cust.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "stats_failed",
				"message": err.Error(),
			})
			return
		}

		if riskFilter == "high" && avgScore < highRiskCutoff {
			continue
		}
		if riskFilter == "safe" && avgScore > safeRiskCutoff {
			continue
		}

		last := "Never"
		if lastActivity != nil {
			last = lastActivity.Format(time.RFC3339)
		}

		results = append(results, CustomerView{
			ID:               cust.ID,
			FullName:         cust.FullName,
			Email:            cust.Email,
			CardType:         cust.CardType,
			CardLastFour:     cust.CardLastFour,
			RiskScore:        avgScore,
			LastActivity:     last,
			TransactionCount: count,
			Frozen:           cust.Frozen,
			Active:           cust.Active,
		})
	}

	c.JSON(http.StatusOK, results)
}

// ListActiveIDs handles GET /customers/ids, the simulator's pick list.
// Only active customers are returned so deactivated cards stop generating
// traffic.
func (h *Handler) ListActiveIDs(c *gin.Context) {
	ids, err := h.store.ListActiveIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, ids)
}

// ToggleFreeze handles POST /customers/:id/freeze
func (h *Handler) ToggleFreeze(c *gin.Context) {
	id, ok := h.customerID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	cust, err := h.store.Get(ctx, id)
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	frozen := !cust.Frozen
	if err := h.store.SetFrozen(ctx, id, frozen); err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	msg := "Customer unfrozen"
	if frozen {
		msg = "Customer frozen"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   msg,
		"is_frozen": frozen,
	})
}

// Deactivate handles POST /customers/:id/deactivate (soft delete)
func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := h.customerID(c)
	if !ok {
		return
	}

	if err := h.store.SetActive(c.Request.Context(), id, false); err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Customer deactivated",
		"is_active": false,
	})
}

func (h *Handler) customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Customer id must be an integer",
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) notFoundOrInternal(c *gin.Context, err error) {
	if errors.Is(err, ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Customer not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": err.Error(),
	})
}
