package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"returns-service/internal/audit"
	"returns-service/internal/models"
	"returns-service/internal/util"

	"go.uber.org/zap"
)

// ReturnFlagCache is the optional fast path in front of the repository's
// return flag. The repository remains the source of truth; the cache only
// turns away obvious duplicates early.
type ReturnFlagCache interface {
	MarkReturn(ctx context.Context, orderID, productID, status string) (ok bool, existing string, err error)
	ClearReturn(ctx context.Context, orderID, productID, status string) error
}

// Pipeline sequences validation, eligibility and label issuance with
// short-circuit semantics. Each run is sequential; concurrent runs for the
// same order/product are serialized by the repository's guarded write.
type Pipeline struct {
	repo      OrderRepository
	validator *Validator
	policy    *PolicyEngine
	labels    *LabelGenerator
	sink      audit.Sink
	flags     ReturnFlagCache
	logger    *zap.Logger
}

// NewPipeline creates an orchestration pipeline. flags may be nil.
func NewPipeline(
	repo OrderRepository,
	validator *Validator,
	policy *PolicyEngine,
	labels *LabelGenerator,
	sink audit.Sink,
	flags ReturnFlagCache,
) *Pipeline {
	return &Pipeline{
		repo:      repo,
		validator: validator,
		policy:    policy,
		labels:    labels,
		sink:      sink,
		flags:     flags,
		logger:    util.NamedLogger("pipeline"),
	}
}

// run tracks one request through the state machine and numbers its audit
// entries so the trail reads in execution order.
type run struct {
	pipeline *Pipeline
	req      *models.ReturnRequest
	seq      int
}

func (r *run) record(ctx context.Context, stage, outcome, detail string, payload interface{}) {
	r.seq++
	entry := &models.AuditEntry{
		RequestID: r.req.RequestID,
		Seq:       r.seq,
		Subject:   r.req.Subject,
		Stage:     stage,
		Outcome:   outcome,
		Detail:    detail,
		Payload:   marshalPayload(payload),
		CreatedAt: time.Now(),
	}

	if err := r.pipeline.sink.Record(ctx, entry); err != nil {
		r.pipeline.logger.Error("Audit sink refused entry",
			zap.String("request_id", r.req.RequestID),
			zap.String("stage", stage),
			zap.Error(err))
	}
	util.AuditEntriesTotal.WithLabelValues(outcome).Inc()
}

func marshalPayload(payload interface{}) string {
	if payload == nil {
		return ""
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Handle drives a return request to a terminal state. Policy rejections and
// infrastructure failures are both expressed on the result; the method itself
// never returns an error.
func (p *Pipeline) Handle(ctx context.Context, req *models.ReturnRequest) *models.ReturnResult {
	util.ReturnsRequestedTotal.Inc()
	r := &run{pipeline: p, req: req}
	result := &models.ReturnResult{RequestID: req.RequestID}

	r.record(ctx, models.StateReceived, models.AuditOutcomeSuccess, "return request received", req)

	// Validating
	if p.expired(ctx, r, result, models.StateValidating) {
		return result
	}
	start := time.Now()
	validation, rejection, err := p.validator.Validate(ctx, req)
	util.PipelineStageLatency.WithLabelValues(models.StateValidating).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		return p.fail(ctx, r, result, models.StateValidating, models.ReasonInfrastructure, err)
	case rejection != nil:
		return p.reject(ctx, r, result, models.StateValidating, rejection)
	case !validation.Delivered:
		result.Validation = validation
		return p.reject(ctx, r, result, models.StateValidating, &Rejection{
			Reason:  models.ReasonNotDelivered,
			Message: "the order has not been delivered yet",
		})
	case validation.DeliveredAt == nil:
		// Delivered but no delivery date on record. The window cannot be
		// computed, so the policy engine must not see this request.
		result.Validation = validation
		return p.reject(ctx, r, result, models.StateValidating, &Rejection{
			Reason:  models.ReasonDeliveryDateUnknown,
			Message: "the delivery date for this order is not on record; contact support",
		})
	case validation.ReturnInProgress:
		result.Validation = validation
		return p.reject(ctx, r, result, models.StateValidating, &Rejection{
			Reason:  models.ReasonAlreadyInProgress,
			Message: "a return is already " + statusPhrase(validation.ExistingStatus) + " for this product",
		})
	}
	result.Validation = validation
	r.record(ctx, models.StateValidating, models.AuditOutcomeSuccess, "order validated", validation)

	// Evaluating
	if p.expired(ctx, r, result, models.StateEvaluating) {
		return result
	}
	start = time.Now()
	decision := p.policy.Evaluate(RuleInput{
		Product:     validation.Product,
		Condition:   req.Condition,
		Reason:      req.Reason,
		DeliveredAt: derefTime(validation.DeliveredAt),
		RequestDate: req.RequestDate,
	})
	util.PipelineStageLatency.WithLabelValues(models.StateEvaluating).Observe(time.Since(start).Seconds())

	result.Decision = decision
	if !decision.Eligible {
		return p.reject(ctx, r, result, models.StateEvaluating, &Rejection{
			Reason:  decision.ReasonCode,
			Message: decision.Reason,
		})
	}
	r.record(ctx, models.StateEvaluating, models.AuditOutcomeSuccess, decision.Reason, decision)

	// Labeling
	if p.expired(ctx, r, result, models.StateLabeling) {
		return result
	}
	start = time.Now()
	label, rejection, err := p.issueLabel(ctx, req, validation, decision)
	util.PipelineStageLatency.WithLabelValues(models.StateLabeling).Observe(time.Since(start).Seconds())

	if rejection != nil {
		return p.reject(ctx, r, result, models.StateLabeling, rejection)
	}
	if err != nil {
		return p.fail(ctx, r, result, models.StateLabeling, models.ReasonInfrastructure, err)
	}
	result.Label = label
	r.record(ctx, models.StateLabeling, models.AuditOutcomeSuccess, "label issued: "+label.RMAID, label)

	// Completed
	result.State = models.StateCompleted
	result.Message = "return authorized"
	r.record(ctx, models.StateCompleted, models.AuditOutcomeSuccess, "return completed", label)
	util.ReturnsCompletedTotal.Inc()

	p.logger.Info("Return completed",
		zap.String("request_id", req.RequestID),
		zap.String("order_id", req.OrderID),
		zap.String("rma_id", label.RMAID))

	return result
}

// issueLabel claims the return flag and mints the label. A lost claim is an
// already-in-progress rejection; anything else wrong is an infrastructure
// failure, compensated by releasing the flag again.
func (p *Pipeline) issueLabel(
	ctx context.Context,
	req *models.ReturnRequest,
	validation *models.ValidationResult,
	decision *models.EligibilityDecision,
) (*models.ReturnLabel, *Rejection, error) {
	productID := validation.Product.ProductID

	cacheClaimed := false
	if p.flags != nil {
		ok, existing, err := p.flags.MarkReturn(ctx, req.OrderID, productID, models.ReturnStatusInProgress)
		if err != nil {
			// The cache is advisory; the guarded repository write below decides.
			p.logger.Warn("Return flag cache unavailable",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
		} else if !ok {
			return nil, &Rejection{
				Reason:  models.ReasonAlreadyInProgress,
				Message: "a return is already " + statusPhrase(existing) + " for this product",
			}, nil
		} else {
			cacheClaimed = true
		}
	}

	releaseCache := func() {
		if !cacheClaimed {
			return
		}
		if err := p.flags.ClearReturn(ctx, req.OrderID, productID, models.ReturnStatusInProgress); err != nil {
			p.logger.Error("Failed to release return flag cache",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
		}
	}

	if err := p.repo.MarkReturnInProgress(ctx, req.OrderID, productID); err != nil {
		releaseCache()
		if errors.Is(err, models.ErrReturnInProgress) {
			return nil, &Rejection{
				Reason:  models.ReasonAlreadyInProgress,
				Message: "a return is already in progress for this product",
			}, nil
		}
		return nil, nil, err
	}

	label, err := p.labels.Generate(ctx, LabelInput{
		OrderID:         req.OrderID,
		ProductID:       productID,
		ProductName:     validation.Product.Name,
		Category:        decision.ProcessCategory,
		OrderCarrier:    validation.Order.Carrier,
		CustomerName:    orDefault(req.CustomerName, validation.Order.Customer),
		CustomerAddress: orDefault(req.CustomerAddress, validation.Order.Destination),
		Reason:          req.Reason,
		IssuedAt:        req.RequestDate,
	})
	if err != nil {
		if clearErr := p.repo.ClearReturnInProgress(ctx, req.OrderID, productID); clearErr != nil {
			p.logger.Error("Failed to roll back return flag",
				zap.String("order_id", req.OrderID),
				zap.Error(clearErr))
		}
		releaseCache()
		return nil, nil, err
	}

	return label, nil, nil
}

// reject terminates the run with a policy rejection at the given stage.
func (p *Pipeline) reject(ctx context.Context, r *run, result *models.ReturnResult, stage string, rejection *Rejection) *models.ReturnResult {
	r.record(ctx, stage, models.AuditOutcomeRejected, rejection.Message, rejection)

	if stage == models.StateEvaluating {
		result.State = models.StateRejectedAtEligibility
	} else {
		result.State = models.StateRejectedAtValidation
	}
	result.Reason = rejection.Reason
	result.Message = rejection.Message
	util.ReturnsRejectedTotal.WithLabelValues(stage, string(rejection.Reason)).Inc()

	p.logger.Info("Return rejected",
		zap.String("request_id", r.req.RequestID),
		zap.String("stage", stage),
		zap.String("reason", string(rejection.Reason)))

	return result
}

// fail terminates the run with a retryable infrastructure failure.
func (p *Pipeline) fail(ctx context.Context, r *run, result *models.ReturnResult, stage string, reason models.RejectionReason, err error) *models.ReturnResult {
	r.record(ctx, stage, models.AuditOutcomeError, err.Error(), nil)

	result.State = models.StateFailed
	result.Reason = reason
	result.Message = "a temporary problem occurred, please retry"
	util.ReturnsFailedTotal.WithLabelValues(string(reason)).Inc()

	p.logger.Error("Return failed",
		zap.String("request_id", r.req.RequestID),
		zap.String("stage", stage),
		zap.Error(err))

	return result
}

// expired maps a caller-imposed timeout or cancellation to the Failed state
// before the next stage starts.
func (p *Pipeline) expired(ctx context.Context, r *run, result *models.ReturnResult, stage string) bool {
	if ctx.Err() == nil {
		return false
	}

	r.record(context.Background(), stage, models.AuditOutcomeError, "request timed out", nil)
	result.State = models.StateFailed
	result.Reason = models.ReasonTimeout
	result.Message = "the request timed out, please retry"
	util.ReturnsFailedTotal.WithLabelValues(string(models.ReasonTimeout)).Inc()
	return true
}

func statusPhrase(status string) string {
	if status == models.ReturnStatusCompleted {
		return "completed"
	}
	return "in progress"
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
