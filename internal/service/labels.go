package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"returns-service/internal/models"
	"returns-service/internal/util"

	"go.uber.org/zap"
)

// SequenceSource mints monotonically increasing authorization sequence
// numbers, scoped per year.
type SequenceSource interface {
	NextRMASequence(ctx context.Context, year int) (int64, error)
}

// LabelStore persists issued labels.
type LabelStore interface {
	CreateLabel(ctx context.Context, label *models.ReturnLabel) error
}

// LabelInput carries everything the generator needs. Customer name and
// address are optional; when absent the instructions tell the customer to
// provide them before pickup.
type LabelInput struct {
	OrderID         string
	ProductID       string
	ProductName     string
	Category        models.ProcessCategory
	OrderCarrier    string
	CustomerName    string
	CustomerAddress string
	Reason          string
	IssuedAt        time.Time
}

// LabelGenerator mints return authorizations and shipping instructions.
type LabelGenerator struct {
	seq          SequenceSource
	store        LabelStore
	houseCarrier string
	baseURL      string
	logger       *zap.Logger
}

// NewLabelGenerator creates a label generator
func NewLabelGenerator(seq SequenceSource, store LabelStore, houseCarrier, baseURL string) *LabelGenerator {
	return &LabelGenerator{
		seq:          seq,
		store:        store,
		houseCarrier: houseCarrier,
		baseURL:      baseURL,
		logger:       util.NamedLogger("labels"),
	}
}

// Generate issues a return label. Fails with
// models.ErrInvalidProcessCategory when called without an eligible process
// category, and with a retryable error when identifier issuance or
// persistence fails; it never fabricates an authorization.
func (g *LabelGenerator) Generate(ctx context.Context, in LabelInput) (*models.ReturnLabel, error) {
	if in.Category != models.ProcessStandardPickup && in.Category != models.ProcessPriorityPickup {
		return nil, fmt.Errorf("category %q: %w", in.Category, models.ErrInvalidProcessCategory)
	}

	year := in.IssuedAt.Year()
	seq, err := g.seq.NextRMASequence(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLabelIssuance, err)
	}

	rmaID := fmt.Sprintf("RMA-%d-%06d", year, seq)
	carrier := g.carrierFor(in.Category, in.OrderCarrier)

	label := &models.ReturnLabel{
		RMAID:         rmaID,
		OrderID:       in.OrderID,
		ProductID:     in.ProductID,
		Carrier:       carrier,
		ShipmentType:  in.Category,
		Instructions:  g.instructionsFor(in, carrier),
		LabelURL:      fmt.Sprintf("%s/%s.pdf", strings.TrimRight(g.baseURL, "/"), rmaID),
		PickupWindow:  pickupWindowFor(in.Category),
		Reason:        orDefault(in.Reason, "not specified"),
		CustomerName:  orDefault(in.CustomerName, "registered customer"),
		PickupAddress: orDefault(in.CustomerAddress, "registered address"),
	}

	if err := g.store.CreateLabel(ctx, label); err != nil {
		return nil, fmt.Errorf("failed to persist label %s: %w", rmaID, err)
	}

	util.LabelsIssuedTotal.WithLabelValues(string(in.Category)).Inc()
	g.logger.Info("Return label issued",
		zap.String("rma_id", rmaID),
		zap.String("order_id", in.OrderID),
		zap.String("carrier", carrier),
		zap.String("shipment_type", string(in.Category)))

	return label, nil
}

// carrierFor derives the carrier deterministically from the process
// category. Priority pickups ride the house express tier; standard pickups
// reuse the order's original carrier when known.
func (g *LabelGenerator) carrierFor(category models.ProcessCategory, orderCarrier string) string {
	if category == models.ProcessPriorityPickup {
		return g.houseCarrier + " Priority"
	}
	if orderCarrier != "" {
		return orderCarrier
	}
	return g.houseCarrier
}

func (g *LabelGenerator) instructionsFor(in LabelInput, carrier string) string {
	var steps []string

	if in.CustomerAddress == "" {
		steps = append(steps, "Provide your pickup address before the carrier visit")
	}

	if in.Category == models.ProcessPriorityPickup {
		steps = append(steps,
			fmt.Sprintf("A %s courier will come by within the next 24 hours", carrier),
			"Keep the product available exactly as you received it",
			"The refund is processed automatically")
	} else {
		steps = append(steps,
			"Download and print the attached label",
			"Pack the product in its original box with all accessories",
			"Stick the label on the outside of the package",
			fmt.Sprintf("Hand the package to the %s courier", carrier),
			"You will receive an email confirmation and the refund in 5-7 business days")
	}

	var sb strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&sb, "%d. %s", i+1, step)
		if i < len(steps)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func pickupWindowFor(category models.ProcessCategory) string {
	if category == models.ProcessPriorityPickup {
		return "24 hours"
	}
	return "24-48 hours"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
