package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"returns-service/internal/models"
	"returns-service/internal/service"
	"returns-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReturnReader is the read surface for issued labels and audit trails.
type ReturnReader interface {
	GetLabelByRMA(ctx context.Context, rmaID string) (*models.ReturnLabel, error)
	GetLabelsByOrderID(ctx context.Context, orderID string) ([]models.ReturnLabel, error)
	GetAuditEntriesByRequestID(ctx context.Context, requestID string) ([]models.AuditEntry, error)
}

// Handler contains HTTP handlers
type Handler struct {
	returns        *service.ReturnsService
	reader         ReturnReader
	requestTimeout time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(returns *service.ReturnsService, reader ReturnReader, requestTimeout time.Duration) *Handler {
	return &Handler{
		returns:        returns,
		reader:         reader,
		requestTimeout: requestTimeout,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/messages", h.postMessage)
		v1.POST("/returns", h.postReturn)
		v1.GET("/returns/:rma", h.getLabel)
		v1.GET("/orders/:id/returns", h.getOrderReturns)
		v1.GET("/requests/:id/audit", h.getAuditTrail)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type messageRequest struct {
	Subject    string   `json:"subject" binding:"required"`
	Text       string   `json:"text" binding:"required"`
	PriorTurns []string `json:"prior_turns,omitempty"`
}

// postMessage classifies free text and routes it to the informational or
// operational path
func (h *Handler) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	resp, err := h.returns.HandleMessage(ctx, req.Subject, req.Text, req.PriorTurns)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to handle message, please retry",
			"details": err.Error(),
		})
		return
	}

	c.JSON(statusForMessage(resp), resp)
}

type returnRequest struct {
	Subject         string `json:"subject" binding:"required"`
	OrderID         string `json:"order_id" binding:"required"`
	ProductID       string `json:"product_id,omitempty"`
	Reason          string `json:"reason" binding:"required"`
	Condition       string `json:"condition,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
}

// postReturn runs a structured return request through the pipeline
func (h *Handler) postReturn(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.returns.HandleReturnRequest(ctx, &models.ReturnRequest{
		Subject:         req.Subject,
		OrderID:         req.OrderID,
		ProductID:       req.ProductID,
		Reason:          req.Reason,
		Condition:       models.ProductCondition(req.Condition),
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid return request",
			"details": err.Error(),
		})
		return
	}

	c.JSON(statusForResult(result), result)
}

// getLabel retrieves a previously issued label by RMA id. A missing label is
// a 404; a repository fault stays a retryable 503.
func (h *Handler) getLabel(c *gin.Context) {
	label, err := h.reader.GetLabelByRMA(c.Request.Context(), c.Param("rma"))
	if errors.Is(err, models.ErrLabelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Label not found",
			"details": err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to load label, please retry",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, label)
}

// getOrderReturns lists every label issued for an order
func (h *Handler) getOrderReturns(c *gin.Context) {
	orderID := c.Param("id")
	labels, err := h.reader.GetLabelsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to load returns, please retry",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"labels":   labels,
	})
}

// getAuditTrail retrieves the audit trail for one request, in stage
// execution order
func (h *Handler) getAuditTrail(c *gin.Context) {
	requestID := c.Param("id")
	entries, err := h.reader.GetAuditEntriesByRequestID(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to load audit trail, please retry",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"entries":    entries,
	})
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

func statusForMessage(resp *service.MessageResponse) int {
	if resp.Kind != service.ResponseReturn {
		return http.StatusOK
	}
	return statusForResult(resp.Result)
}

// statusForResult keeps policy rejections and infrastructure failures
// distinguishable on the wire: rejections are final, failures invite a
// retry.
func statusForResult(result *models.ReturnResult) int {
	switch result.State {
	case models.StateCompleted:
		return http.StatusCreated
	case models.StateFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
