package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"returns-service/internal/models"
	"returns-service/internal/util"

	"go.uber.org/zap"
)

// OrderRepository is the engine's read/write surface on order state. The
// repository serializes the mark-return-in-progress write; the engine only
// re-checks and rejects.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderProduct, error)
	MarkReturnInProgress(ctx context.Context, orderID, productID string) error
	ClearReturnInProgress(ctx context.Context, orderID, productID string) error
}

// Rejection is a policy-level refusal, as opposed to an infrastructure
// error. Always explainable to the user, never retried automatically.
type Rejection struct {
	Reason  models.RejectionReason
	Message string
}

// Validator confirms an order/product pair exists, resolving the product
// line when the request names none.
type Validator struct {
	repo   OrderRepository
	logger *zap.Logger
}

// NewValidator creates an order status validator
func NewValidator(repo OrderRepository) *Validator {
	return &Validator{
		repo:   repo,
		logger: util.NamedLogger("validator"),
	}
}

// Validate checks the order against the repository's most recent committed
// state. A non-existent order or an unresolvable product is a rejection; a
// repository fault is an error. Delivery and return-in-progress outcomes are
// reported on the result for the pipeline to act on.
func (v *Validator) Validate(ctx context.Context, req *models.ReturnRequest) (*models.ValidationResult, *Rejection, error) {
	order, products, err := v.repo.GetOrder(ctx, req.OrderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		return nil, &Rejection{
			Reason:  models.ReasonNotFound,
			Message: fmt.Sprintf("order %s was not found", req.OrderID),
		}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order %s: %w", req.OrderID, err)
	}

	product, rej := resolveProduct(req, products)
	if rej != nil {
		return nil, rej, nil
	}

	result := &models.ValidationResult{
		Exists:           true,
		Delivered:        order.Status == models.OrderStatusDelivered,
		DeliveredAt:      order.DeliveredAt,
		ReturnInProgress: product.ReturnStatus != models.ReturnStatusNone,
		ExistingStatus:   product.ReturnStatus,
		Order:            order,
		Product:          product,
	}

	v.logger.Debug("Order validated",
		zap.String("order_id", req.OrderID),
		zap.String("product_id", product.ProductID),
		zap.Bool("delivered", result.Delivered),
		zap.Bool("return_in_progress", result.ReturnInProgress))

	return result, nil, nil
}

// resolveProduct picks the product line the request refers to. With no
// product id the order must have exactly one line; the validator never
// guesses between candidates.
func resolveProduct(req *models.ReturnRequest, products []models.OrderProduct) (*models.OrderProduct, *Rejection) {
	if req.ProductID != "" {
		for i := range products {
			p := &products[i]
			if p.ProductID == req.ProductID || strings.EqualFold(p.Name, req.ProductID) {
				return p, nil
			}
		}
		return nil, &Rejection{
			Reason:  models.ReasonProductNotFound,
			Message: fmt.Sprintf("product %q was not found in order %s", req.ProductID, req.OrderID),
		}
	}

	switch len(products) {
	case 0:
		return nil, &Rejection{
			Reason:  models.ReasonProductNotFound,
			Message: fmt.Sprintf("order %s has no product lines", req.OrderID),
		}
	case 1:
		return &products[0], nil
	default:
		return nil, &Rejection{
			Reason:  models.ReasonProductAmbiguous,
			Message: fmt.Sprintf("order %s has %d products; specify which one to return", req.OrderID, len(products)),
		}
	}
}
