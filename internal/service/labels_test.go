package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"returns-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLabelInput(category models.ProcessCategory) LabelInput {
	return LabelInput{
		OrderID:         "20001",
		ProductID:       "P-100",
		ProductName:     "Wireless Headphones",
		Category:        category,
		OrderCarrier:    "DHL",
		CustomerName:    "Ana Torres",
		CustomerAddress: "Calle 12 #34-56, Bogota",
		Reason:          "wrong size",
		IssuedAt:        day("2025-10-05"),
	}
}

func newTestGenerator() (*LabelGenerator, *fakeSeq, *fakeLabelStore) {
	seq := &fakeSeq{}
	store := &fakeLabelStore{}
	return NewLabelGenerator(seq, store, "EcoExpress", "https://ecomarket.dev/returns"), seq, store
}

func TestGenerateRejectsProcessCategoryNone(t *testing.T) {
	gen, _, store := newTestGenerator()

	_, err := gen.Generate(context.Background(), testLabelInput(models.ProcessNone))

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidProcessCategory)
	assert.Zero(t, store.count())
}

func TestGenerateStandardPickup(t *testing.T) {
	gen, _, store := newTestGenerator()

	label, err := gen.Generate(context.Background(), testLabelInput(models.ProcessStandardPickup))

	require.NoError(t, err)
	assert.Equal(t, "RMA-2025-000001", label.RMAID)
	assert.Equal(t, "DHL", label.Carrier, "standard pickups reuse the order's carrier")
	assert.Equal(t, models.ProcessStandardPickup, label.ShipmentType)
	assert.Equal(t, "24-48 hours", label.PickupWindow)
	assert.Equal(t, "https://ecomarket.dev/returns/RMA-2025-000001.pdf", label.LabelURL)
	assert.Contains(t, label.Instructions, "print")
	assert.Equal(t, 1, store.count())
}

func TestGeneratePriorityPickupUsesExpressTier(t *testing.T) {
	gen, _, _ := newTestGenerator()

	label, err := gen.Generate(context.Background(), testLabelInput(models.ProcessPriorityPickup))

	require.NoError(t, err)
	assert.Equal(t, "EcoExpress Priority", label.Carrier)
	assert.Equal(t, "24 hours", label.PickupWindow)
	assert.Contains(t, label.Instructions, "24 hours")
}

func TestGenerateMissingAddressAsksForIt(t *testing.T) {
	gen, _, _ := newTestGenerator()
	in := testLabelInput(models.ProcessStandardPickup)
	in.CustomerAddress = ""
	in.CustomerName = ""

	label, err := gen.Generate(context.Background(), in)

	require.NoError(t, err)
	firstLine := strings.SplitN(label.Instructions, "\n", 2)[0]
	assert.Contains(t, firstLine, "Provide your pickup address")
	assert.Equal(t, "registered customer", label.CustomerName)
}

func TestGenerateUniqueAuthorizationIDs(t *testing.T) {
	gen, _, _ := newTestGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		label, err := gen.Generate(context.Background(), testLabelInput(models.ProcessStandardPickup))
		require.NoError(t, err)
		assert.False(t, seen[label.RMAID], "duplicate RMA id %s", label.RMAID)
		seen[label.RMAID] = true
	}
}

func TestGenerateSequenceFailureIsNotFabricated(t *testing.T) {
	gen, seq, store := newTestGenerator()
	seq.err = fmt.Errorf("redis unreachable")

	_, err := gen.Generate(context.Background(), testLabelInput(models.ProcessStandardPickup))

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLabelIssuance)
	assert.Zero(t, store.count())
}

func TestGeneratePersistFailureSurfaces(t *testing.T) {
	gen, _, store := newTestGenerator()
	store.err = fmt.Errorf("database down")

	_, err := gen.Generate(context.Background(), testLabelInput(models.ProcessStandardPickup))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist")
}
