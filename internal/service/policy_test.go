package service

import (
	"testing"
	"time"

	"returns-service/config"
	"returns-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		ReturnWindowDays:   30,
		ExcludedCategories: []string{"PERISHABLE_FOOD", "HYGIENE", "MEDICATION"},
		HouseCarrier:       "EcoExpress",
		LabelBaseURL:       "https://ecomarket.dev/returns",
	}
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func electronicsProduct() *models.OrderProduct {
	return &models.OrderProduct{
		OrderID:         "20001",
		ProductID:       "P-100",
		Name:            "Wireless Headphones",
		Category:        "ELECTRONICS",
		ReturnsAccepted: true,
		ReturnStatus:    models.ReturnStatusNone,
	}
}

func TestEvaluateStandardPickupWithinWindow(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionSealed,
		DeliveredAt: day("2025-09-20"),
		RequestDate: day("2025-10-05"),
	})

	require.True(t, decision.Eligible)
	assert.Equal(t, 15, decision.RemainingDays)
	assert.Equal(t, models.ProcessStandardPickup, decision.ProcessCategory)
	require.NotEmpty(t, decision.NextSteps)
	assert.Contains(t, decision.NextSteps[0], "label")
}

func TestEvaluateDamageDoesNotOverrideExpiredWindow(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionDamagedInTransit,
		DeliveredAt: day("2025-09-20"),
		RequestDate: day("2025-10-25"),
	})

	assert.False(t, decision.Eligible)
	assert.Equal(t, models.ReasonWindowExpired, decision.ReasonCode)
	assert.Equal(t, models.ProcessNone, decision.ProcessCategory)
}

func TestEvaluateWindowBoundaryInclusive(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	atBoundary := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionSealed,
		DeliveredAt: day("2025-09-01"),
		RequestDate: day("2025-10-01"), // exactly 30 days
	})
	require.True(t, atBoundary.Eligible)
	assert.Equal(t, 0, atBoundary.RemainingDays)

	pastBoundary := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionSealed,
		DeliveredAt: day("2025-09-01"),
		RequestDate: day("2025-10-02"), // 31 days
	})
	assert.False(t, pastBoundary.Eligible)
	assert.Equal(t, models.ReasonWindowExpired, pastBoundary.ReasonCode)
}

func TestEvaluateRequestBeforeDeliveryCountsAsDayZero(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionSealed,
		DeliveredAt: day("2025-10-05"),
		RequestDate: day("2025-10-01"),
	})

	require.True(t, decision.Eligible)
	assert.Equal(t, 30, decision.RemainingDays, "remaining days must never exceed the window")
}

func TestEvaluateExcludedCategories(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	for _, category := range []string{"PERISHABLE_FOOD", "HYGIENE", "MEDICATION"} {
		product := electronicsProduct()
		product.Category = category

		// Fresh delivery and sealed condition must not rescue an excluded
		// category.
		decision := engine.Evaluate(RuleInput{
			Product:     product,
			Condition:   models.ConditionSealed,
			DeliveredAt: day("2025-10-01"),
			RequestDate: day("2025-10-02"),
		})

		assert.False(t, decision.Eligible, category)
		assert.Equal(t, models.ReasonCategoryExcluded, decision.ReasonCode, category)
		assert.Contains(t, decision.Reason, category)
	}
}

func TestEvaluateCategoryExclusionPrecedesWindow(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())
	product := electronicsProduct()
	product.Category = "MEDICATION"

	decision := engine.Evaluate(RuleInput{
		Product:     product,
		Condition:   models.ConditionDamagedInTransit,
		DeliveredAt: day("2025-01-01"),
		RequestDate: day("2025-10-01"), // would also fail the window
	})

	assert.False(t, decision.Eligible)
	assert.Equal(t, models.ReasonCategoryExcluded, decision.ReasonCode)
}

func TestEvaluateProductLineRefusingReturns(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())
	product := electronicsProduct()
	product.ReturnsAccepted = false

	decision := engine.Evaluate(RuleInput{
		Product:     product,
		Condition:   models.ConditionSealed,
		DeliveredAt: day("2025-10-01"),
		RequestDate: day("2025-10-02"),
	})

	assert.False(t, decision.Eligible)
	assert.Equal(t, models.ReasonCategoryExcluded, decision.ReasonCode)
}

func TestEvaluateUsedCondition(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionUsed,
		DeliveredAt: day("2025-09-20"),
		RequestDate: day("2025-10-05"),
	})

	assert.False(t, decision.Eligible)
	assert.Equal(t, models.ReasonConditionUsed, decision.ReasonCode)
	assert.Equal(t, models.ProcessNone, decision.ProcessCategory)
}

func TestEvaluateDamagedInTransitGetsPriorityPickup(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionDamagedInTransit,
		DeliveredAt: day("2025-09-20"),
		RequestDate: day("2025-10-05"),
	})

	require.True(t, decision.Eligible)
	assert.Equal(t, models.ProcessPriorityPickup, decision.ProcessCategory)
	assert.Equal(t, 15, decision.RemainingDays)
}

func TestEvaluateOpenedNewGetsStandardPickup(t *testing.T) {
	engine := NewPolicyEngine(testPolicyConfig())

	decision := engine.Evaluate(RuleInput{
		Product:     electronicsProduct(),
		Condition:   models.ConditionOpenedNew,
		DeliveredAt: day("2025-09-20"),
		RequestDate: day("2025-10-05"),
	})

	require.True(t, decision.Eligible)
	assert.Equal(t, models.ProcessStandardPickup, decision.ProcessCategory)
}
