package pipeline

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/scoring"
	"github.com/fraudlens/fraudlens/internal/validation"
)

// Handler exposes the decision pipeline over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates a new pipeline handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the predict route
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict", h.Predict)
}

// PredictMetadata carries the transaction context alongside the features.
type PredictMetadata struct {
	CustomerID int64   `json:"customer_id" binding:"required"`
	Merchant   string  `json:"merchant"`
	Amount     float64 `json:"amount"`
}

// PredictRequest is one transaction to score.
type PredictRequest struct {
	Features []float64       `json:"features" binding:"required"`
	Metadata PredictMetadata `json:"metadata" binding:"required"`
}

// Predict handles POST /predict. The classifier being down is the one
// server-side failure; everything else the caller can cause is a 400.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Prediction Error: invalid request body",
		})
		return
	}

	if req.Metadata.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Prediction Error: amount must not be negative",
		})
		return
	}

	result, err := h.service.Process(c.Request.Context(), &Request{
		Features:   req.Features,
		CustomerID: req.Metadata.CustomerID,
		Merchant:   validation.SanitizeString(req.Metadata.Merchant, validation.MaxMerchantLength),
		Amount:     req.Metadata.Amount,
	})
	if err != nil {
		if errors.Is(err, scoring.ErrClassifierUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "classifier_unavailable",
				"message": "Fraud model is not loaded",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "prediction_failed",
			"message": "Prediction Error: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
