package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, text string, prior ...string) Result {
	t.Helper()
	result, err := NewRuleClassifier().Classify(context.Background(), text, prior)
	require.NoError(t, err)
	return result
}

func TestClassifyOperational(t *testing.T) {
	cases := []struct {
		text    string
		orderID string
	}{
		{"I want to return the headphones from order 20001", "20001"},
		{"Please initiate a return for order #20002", "20002"},
		{"Can I send back my blender? Tracking 20003", "20003"},
		{"quiero devolver el pedido 20004", "20004"},
	}

	for _, tc := range cases {
		result := classify(t, tc.text)
		assert.Equal(t, Operational, result.Type, tc.text)
		assert.Equal(t, tc.orderID, result.OrderID, tc.text)
	}
}

func TestClassifyInformational(t *testing.T) {
	cases := []string{
		"What is your return policy?",
		"How long is the return window?",
		"Which products cannot be returned?",
		"Where is my order 20001?",
		"When does my package arrive?",
	}

	for _, text := range cases {
		result := classify(t, text)
		assert.Equal(t, Informational, result.Type, text)
	}
}

func TestClassifyAmbiguousWithoutOrderReference(t *testing.T) {
	result := classify(t, "I want to return this product, it came damaged")
	assert.Equal(t, Ambiguous, result.Type)
	assert.Empty(t, result.OrderID, "a missing order id must never be guessed")
}

func TestClassifyPriorTurnSuppliesOrderID(t *testing.T) {
	result := classify(t, "please return it", "Where is my order 20001?")
	assert.Equal(t, Operational, result.Type)
	assert.Equal(t, "20001", result.OrderID)
}

func TestClassifyExtractsProductID(t *testing.T) {
	result := classify(t, "return product P-100 from order 20001")
	assert.Equal(t, Operational, result.Type)
	assert.Equal(t, "P-100", result.ProductID)
}

func TestClassifyReturnAsNounIsNotActionable(t *testing.T) {
	// "return" followed by a policy noun is a question even when an order
	// id is present.
	result := classify(t, "Does the return window cover weekends for order 20001?")
	assert.Equal(t, Informational, result.Type)

	result = classify(t, "I want to return my order 20001")
	assert.Equal(t, Operational, result.Type)
}

func TestClassifyVerbInsideWordDoesNotCount(t *testing.T) {
	// "initiate" embedded in a longer word is not an action verb.
	result := classify(t, "my package was misinitiated for 20001")
	assert.Equal(t, Informational, result.Type)
}
