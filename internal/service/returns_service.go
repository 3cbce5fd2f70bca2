package service

import (
	"context"
	"fmt"
	"time"

	"returns-service/internal/intent"
	"returns-service/internal/models"
	"returns-service/internal/rag"
	"returns-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecyclePublisher publishes terminal pipeline outcomes for downstream
// collaborators. Publish failures are logged, never surfaced to the user.
type LifecyclePublisher interface {
	PublishReturnCompleted(ctx context.Context, event *models.ReturnCompletedEvent) error
	PublishReturnRejected(ctx context.Context, event *models.ReturnRejectedEvent) error
	PublishReturnFailed(ctx context.Context, event *models.ReturnFailedEvent) error
}

// Response kinds for HandleMessage
const (
	ResponseAnswer        = "ANSWER"
	ResponseClarification = "CLARIFICATION"
	ResponseReturn        = "RETURN"
)

// MessageResponse is the outcome of one classified inbound message.
type MessageResponse struct {
	Kind          string               `json:"kind"`
	Intent        intent.Type          `json:"intent"`
	Answer        string               `json:"answer,omitempty"`
	Clarification string               `json:"clarification,omitempty"`
	Result        *models.ReturnResult `json:"result,omitempty"`
}

// ReturnsService is the front door: it classifies inbound requests, routes
// informational questions to the answerer and operational ones into the
// pipeline, and publishes lifecycle events on terminal outcomes.
type ReturnsService struct {
	classifier intent.Classifier
	pipeline   *Pipeline
	answerer   rag.Answerer
	publisher  LifecyclePublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewReturnsService creates the front service. publisher may be nil.
func NewReturnsService(
	classifier intent.Classifier,
	pipeline *Pipeline,
	answerer rag.Answerer,
	publisher LifecyclePublisher,
) *ReturnsService {
	return &ReturnsService{
		classifier: classifier,
		pipeline:   pipeline,
		answerer:   answerer,
		publisher:  publisher,
		logger:     util.NamedLogger("returns"),
		now:        time.Now,
	}
}

// HandleMessage classifies raw request text and acts on the intent. An
// ambiguous request gets a clarifying question back; the engine never
// guesses a missing order identifier.
func (s *ReturnsService) HandleMessage(ctx context.Context, subject, text string, priorTurns []string) (*MessageResponse, error) {
	ctx, span := util.StartSpan(ctx, "ReturnsService.HandleMessage")
	defer span.End()

	classified, err := s.classifier.Classify(ctx, text, priorTurns)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	util.IntentClassifiedTotal.WithLabelValues(string(classified.Type)).Inc()

	s.logger.Info("Message classified",
		zap.String("subject", subject),
		zap.String("intent", string(classified.Type)),
		zap.String("order_id", classified.OrderID))

	switch classified.Type {
	case intent.Informational:
		answer, err := s.answerer.Answer(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("informational handoff failed: %w", err)
		}
		return &MessageResponse{
			Kind:   ResponseAnswer,
			Intent: classified.Type,
			Answer: answer,
		}, nil

	case intent.Ambiguous:
		return &MessageResponse{
			Kind:          ResponseClarification,
			Intent:        classified.Type,
			Clarification: "I can start that return, but I need your order number. Which order is the product from?",
		}, nil

	default:
		req := &models.ReturnRequest{
			RequestID: uuid.New().String(),
			Subject:   subject,
			OrderID:   classified.OrderID,
			ProductID: classified.ProductID,
			Reason:    text,
			// The chat path does not collect the product condition; assume
			// sealed, the same default the request form uses.
			Condition:   models.ConditionSealed,
			RequestDate: s.now(),
		}

		result := s.runPipeline(ctx, req)
		return &MessageResponse{
			Kind:   ResponseReturn,
			Intent: classified.Type,
			Result: result,
		}, nil
	}
}

// HandleReturnRequest runs a structured return request through the
// pipeline.
func (s *ReturnsService) HandleReturnRequest(ctx context.Context, req *models.ReturnRequest) (*models.ReturnResult, error) {
	ctx, span := util.StartSpan(ctx, "ReturnsService.HandleReturnRequest")
	defer span.End()

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.RequestDate.IsZero() {
		req.RequestDate = s.now()
	}
	if req.Condition == "" {
		req.Condition = models.ConditionSealed
	}
	if !req.Condition.Valid() {
		return nil, fmt.Errorf("unknown product condition %q", req.Condition)
	}

	return s.runPipeline(ctx, req), nil
}

func (s *ReturnsService) runPipeline(ctx context.Context, req *models.ReturnRequest) *models.ReturnResult {
	result := s.pipeline.Handle(ctx, req)
	s.publishResult(ctx, req, result)
	return result
}

func (s *ReturnsService) publishResult(ctx context.Context, req *models.ReturnRequest, result *models.ReturnResult) {
	if s.publisher == nil {
		return
	}

	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		Timestamp: s.now(),
	}

	var err error
	switch {
	case result.State == models.StateCompleted:
		base.EventType = models.EventTypeReturnCompleted
		err = s.publisher.PublishReturnCompleted(ctx, &models.ReturnCompletedEvent{
			BaseEvent:       base,
			RequestID:       req.RequestID,
			OrderID:         req.OrderID,
			ProductID:       result.Label.ProductID,
			RMAID:           result.Label.RMAID,
			ProcessCategory: result.Label.ShipmentType,
			Carrier:         result.Label.Carrier,
			PickupWindow:    result.Label.PickupWindow,
		})

	case result.Rejected():
		base.EventType = models.EventTypeReturnRejected
		err = s.publisher.PublishReturnRejected(ctx, &models.ReturnRejectedEvent{
			BaseEvent: base,
			RequestID: req.RequestID,
			OrderID:   req.OrderID,
			ProductID: req.ProductID,
			Stage:     result.State,
			Reason:    result.Reason,
			Detail:    result.Message,
		})

	default:
		base.EventType = models.EventTypeReturnFailed
		err = s.publisher.PublishReturnFailed(ctx, &models.ReturnFailedEvent{
			BaseEvent: base,
			RequestID: req.RequestID,
			OrderID:   req.OrderID,
			Reason:    result.Reason,
			Detail:    result.Message,
		})
	}

	if err != nil {
		s.logger.Error("Failed to publish lifecycle event",
			zap.String("request_id", req.RequestID),
			zap.String("state", result.State),
			zap.Error(err))
	}
}
