package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

// HTTPHandler exposes the order and generation endpoints.
type HTTPHandler struct {
	service service.StorybookService
	logger  *zap.Logger
}

// NewHTTPHandler creates the HTTP handler.
func NewHTTPHandler(svc service.StorybookService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: svc,
		logger:  logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes attaches all routes to the router.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.POST("/orders", h.createOrder)
		api.POST("/orders/:id/payment", h.confirmPayment)
		api.POST("/orders/:id/generation", h.startGeneration)
		api.GET("/orders/:id/generation", h.getProgress)
		api.GET("/storybooks/:id", h.getStorybook)
	}
}

func (h *HTTPHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type confirmPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *HTTPHandler) confirmPayment(c *gin.Context) {
	orderID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	order, err := h.service.ConfirmPayment(c.Request.Context(), orderID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// startGeneration is the trigger endpoint. A duplicate trigger is not an
// error: the caller is told the run is already in flight and keeps polling.
func (h *HTTPHandler) startGeneration(c *gin.Context) {
	orderID, ok := h.parseID(c)
	if !ok {
		return
	}

	err := h.service.StartGeneration(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrGenerationAlreadyRunning) {
			c.JSON(http.StatusOK, gin.H{"started": false})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

func (h *HTTPHandler) getProgress(c *gin.Context) {
	orderID, ok := h.parseID(c)
	if !ok {
		return
	}

	snapshot, err := h.service.GetProgress(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *HTTPHandler) getStorybook(c *gin.Context) {
	storybookID, ok := h.parseID(c)
	if !ok {
		return
	}

	storybook, err := h.service.GetStorybook(c.Request.Context(), storybookID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, storybook)
}

func (h *HTTPHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrStorybookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrPaymentNotVerified):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment verification failed"})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
