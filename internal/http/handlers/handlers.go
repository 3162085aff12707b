package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/swiftfreight/quote-engine/internal/db"
	"github.com/swiftfreight/quote-engine/internal/distance"
	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
	"github.com/swiftfreight/quote-engine/internal/review"
	"github.com/swiftfreight/quote-engine/internal/service"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

type Handler struct {
	Svc       *service.QuoteService
	Store     db.QuoteStore
	Queue     *review.Queue
	Validator *validator.Validate
	Logger    zerolog.Logger
}

type QuoteRequest struct {
	Shipment   models.RawShipment          `json:"shipment" validate:"required"`
	Confidence models.ExtractionConfidence `json:"confidence"`
}

type IntakeRequest struct {
	EmailBody string `json:"email_body" validate:"required,min=10"`
}

type DecisionRequest struct {
	Action    string              `json:"action" validate:"required,oneof=approve reject edit"`
	Reviewer  string              `json:"reviewer" validate:"required"`
	Reason    string              `json:"reason"`
	Corrected *models.RawShipment `json:"corrected"`
}

type ClaimRequest struct {
	Reviewer string `json:"reviewer" validate:"required"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Create a quote from a structured shipment
// @Description Validates, prices and routes an extracted shipment payload
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "shipment and extraction confidence"
// @Success 201 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/quote [post]
func (h *Handler) CreateQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing required fields", err.Error())
		return
	}

	res, err := h.Svc.CreateQuote(c.Request.Context(), req.Shipment, req.Confidence)
	if err != nil {
		h.writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quoteResponse(res))
}

// @Summary Create a quote from a raw email
// @Description Extracts a shipment from the email body, then runs the quote pipeline
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body IntakeRequest true "raw email body"
// @Success 201 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/intake [post]
func (h *Handler) Intake(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "email_body is required", err.Error())
		return
	}

	res, err := h.Svc.IntakeEmail(c.Request.Context(), req.EmailBody)
	if err != nil {
		h.writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quoteResponse(res))
}

// @Summary Get a quote
// @Tags quotes
// @Produce json
// @Param id path string true "quote id"
// @Success 200 {object} models.Quote
// @Failure 404 {object} map[string]any
// @Router /api/quotes/{id} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.Store.GetQuote(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Quote not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load quote", err.Error())
		return
	}
	c.JSON(http.StatusOK, q)
}

// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param status query string false "filter by status"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/quotes [get]
func (h *Handler) ListQuotes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	quotes, err := h.Store.ListQuotes(c.Request.Context(), models.QuoteStatus(c.Query("status")), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to list quotes", err.Error())
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// @Summary List serviced ZIP codes
// @Tags reference
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/zips [get]
func (h *Handler) ListZips(c *gin.Context) {
	zips := zipdb.All()
	out := make([]gin.H, 0, len(zips))
	for _, z := range zips {
		info, _ := zipdb.Lookup(z)
		out = append(out, gin.H{"zip": z, "city": info.City, "state": info.State})
	}
	c.JSON(http.StatusOK, gin.H{"zips": out, "count": len(out)})
}

// @Summary Pending review queue
// @Tags review
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/review/queue [get]
func (h *Handler) ReviewQueue(c *gin.Context) {
	items := h.Queue.Pending()
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// @Summary Claim the next quote for review
// @Description Atomically hands the highest-priority queued quote to the calling reviewer
// @Tags review
// @Accept json
// @Produce json
// @Param request body ClaimRequest true "reviewer id"
// @Success 200 {object} map[string]any
// @Success 204 "queue empty"
// @Router /api/review/next [post]
func (h *Handler) ClaimNext(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "reviewer is required", err.Error())
		return
	}

	item, quote, ok, err := h.Svc.ClaimNext(c.Request.Context(), req.Reviewer)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load claimed quote", err.Error())
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "quote": quote})
}

// @Summary Decide a claimed review item
// @Description Approve, reject, or edit-and-requote a queued quote
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "queue item id"
// @Param request body DecisionRequest true "decision"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/review/{id}/decision [post]
func (h *Handler) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid decision payload", err.Error())
		return
	}

	res, err := h.Svc.Decide(c.Request.Context(), c.Param("id"),
		models.DecisionAction(req.Action), req.Reviewer, req.Reason, req.Corrected)
	if err != nil {
		h.writeDecisionError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse(res))
}

func quoteResponse(res service.QuoteResult) gin.H {
	out := gin.H{"quote": res.Quote}
	if res.QueueItem != nil {
		out["queue_item"] = res.QueueItem
	}
	return out
}

func (h *Handler) writeQuoteError(c *gin.Context, err error) {
	var verr service.ValidationError
	var blocked ratelimit.Blocked
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Shipment payload is invalid", verr.Fields)
	case errors.As(err, &blocked):
		c.Header("Retry-After", strconv.Itoa(int(blocked.RetryAfter.Seconds()+1)))
		writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Upstream provider budget exhausted", blocked.Error())
	case errors.Is(err, distance.ErrProviderTimeout):
		writeError(c, http.StatusServiceUnavailable, "ROUTING_TIMEOUT", "Distance provider timed out", nil)
	case errors.Is(err, distance.ErrDistanceUnavailable):
		writeError(c, http.StatusServiceUnavailable, "ROUTING_UNAVAILABLE", "Distance provider unavailable", nil)
	case errors.Is(err, review.ErrQueueFull):
		writeError(c, http.StatusServiceUnavailable, "QUEUE_FULL", "Review queue is at capacity", nil)
	default:
		h.Logger.Error().Err(err).Msg("quote pipeline failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to create quote", nil)
	}
}

func (h *Handler) writeDecisionError(c *gin.Context, err error) {
	var ite review.InvalidTransitionError
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Review item not found", nil)
	case errors.As(err, &ite):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Quote already decided", err.Error())
	default:
		h.writeQuoteError(c, err)
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
