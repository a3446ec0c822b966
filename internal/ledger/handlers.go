package ledger

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/decision"
)

// NameResolver maps customer ids to display names for the recent feed.
type NameResolver interface {
	CustomerName(ctx context.Context, customerID int64) (string, error)
}

// Handler provides HTTP endpoints for the ledger and dashboard
type Handler struct {
	store Store
	names NameResolver
}

// NewHandler creates a new ledger handler
func NewHandler(store Store, names NameResolver) *Handler {
	return &Handler{store: store, names: names}
}

// RegisterRoutes sets up ledger and dashboard routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/recent", h.RecentTransactions)
	r.POST("/transactions/:id/decide", h.Decide)
	r.GET("/dashboard/stats", h.DashboardStats)
	r.GET("/dashboard/risky-merchants", h.RiskyMerchants)
	r.GET("/dashboard/trends", h.Trends)
}

// ListTransactions handles GET /transactions?customer_id=&status=&limit=
func (h *Handler) ListTransactions(c *gin.Context) {
	var q Query
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_customer_id",
				"message": "customer_id must be an integer",
			})
			return
		}
		q.CustomerID = id
	}
	if raw := c.Query("status"); raw != "" {
		status := decision.Status(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_status",
				"message": "status must be Approve, Escalate or Decline",
			})
			return
		}
		q.Status = status
	}
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	txns, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}
	if txns == nil {
		txns = []*ScoredTransaction{}
	}
	c.JSON(http.StatusOK, txns)
}

// RecentTransaction is a ledger row decorated with the customer name.
type RecentTransaction struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Merchant     string          `json:"merchant"`
	Amount       float64         `json:"amount"`
	FraudScore   float64         `json:"fraud_score"`
	Status       decision.Status `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
}

// RecentTransactions handles GET /transactions/recent?limit=
func (h *Handler) RecentTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	ctx := c.Request.Context()

	txns, err := h.store.Recent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}

	result := make([]RecentTransaction, 0, len(txns))
	for _, txn := range txns {
		name, err := h.names.CustomerName(ctx, txn.CustomerID)
		if err != nil {
			name = "Unknown"
		}
		result = append(result, RecentTransaction{
			ID:           txn.ID,
			CustomerID:   txn.CustomerID,
			CustomerName: name,
			Merchant:     txn.Merchant,
			Amount:       txn.Amount,
			FraudScore:   txn.FraudScore,
			Status:       txn.Status,
			Timestamp:    txn.Timestamp,
		})
	}
	c.JSON(http.StatusOK, result)
}

// DecideRequest is the manual-override body from the review queue.
type DecideRequest struct {
	Status decision.Status `json:"status" binding:"required"`
}

// Decide handles POST /transactions/:id/decide
func (h *Handler) Decide(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Transaction id must be an integer",
		})
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_status",
			"message": "status must be Approve, Escalate or Decline",
		})
		return
	}

	if err := h.store.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Transaction not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "update_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction updated",
		"status":  req.Status,
	})
}

// DashboardStats handles GET /dashboard/stats
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "stats_failed",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RiskyMerchants handles GET /dashboard/risky-merchants?limit=
func (h *Handler) RiskyMerchants(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	merchants, err := h.store.RiskyMerchants(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "stats_failed",
			"message": err.Error(),
		})
		return
	}
	if merchants == nil {
		merchants = []MerchantRisk{}
	}
	c.JSON(http.StatusOK, merchants)
}

// Trends handles GET /dashboard/trends
func (h *Handler) Trends(c *gin.Context) {
	trends, err := h.store.Trends(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "stats_failed",
			"message": err.Error(),
		})
		return
	}
	if trends == nil {
		trends = []TrendPoint{}
	}
	c.JSON(http.StatusOK, trends)
}
