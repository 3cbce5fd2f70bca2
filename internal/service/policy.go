package service

import (
	"fmt"
	"strings"
	"time"

	"returns-service/config"
	"returns-service/internal/models"
)

// RuleInput is everything a policy rule may look at. The request date is
// supplied by the caller, never read from a system clock, so evaluation is a
// pure function of its inputs.
type RuleInput struct {
	Product     *models.OrderProduct
	Condition   models.ProductCondition
	Reason      string
	DeliveredAt time.Time
	RequestDate time.Time
}

// policyRule is one predicate/decision pair. Rules are evaluated in slice
// order and the first match wins, so a new rule slots in by position without
// touching its neighbours.
type policyRule struct {
	name     string
	evaluate func(e *PolicyEngine, in RuleInput) (*models.EligibilityDecision, bool)
}

// PolicyEngine applies the return policy to a validated order/product.
type PolicyEngine struct {
	cfg   config.PolicyConfig
	rules []policyRule
}

// NewPolicyEngine creates a policy engine with the standard rule order:
// category exclusion, time window, condition, then categorization.
func NewPolicyEngine(cfg config.PolicyConfig) *PolicyEngine {
	e := &PolicyEngine{cfg: cfg}
	e.rules = []policyRule{
		{name: "category_exclusion", evaluate: (*PolicyEngine).ruleCategoryExclusion},
		{name: "time_window", evaluate: (*PolicyEngine).ruleTimeWindow},
		{name: "condition", evaluate: (*PolicyEngine).ruleCondition},
		{name: "categorize", evaluate: (*PolicyEngine).ruleCategorize},
	}
	return e
}

// Evaluate runs the rules in precedence order. The final rule always
// matches, so every input yields a decision.
func (e *PolicyEngine) Evaluate(in RuleInput) *models.EligibilityDecision {
	for _, rule := range e.rules {
		if decision, matched := rule.evaluate(e, in); matched {
			return decision
		}
	}
	// Unreachable: ruleCategorize always matches.
	return &models.EligibilityDecision{
		Eligible:        false,
		Reason:          "no policy rule matched",
		ProcessCategory: models.ProcessNone,
	}
}

// ruleCategoryExclusion rejects non-returnable categories ahead of every
// other check, however recent the delivery.
func (e *PolicyEngine) ruleCategoryExclusion(in RuleInput) (*models.EligibilityDecision, bool) {
	category := excludedCategory(in.Product, e.cfg.ExcludedCategories)
	if category == "" {
		return nil, false
	}
	return &models.EligibilityDecision{
		Eligible:        false,
		Reason:          fmt.Sprintf("products in category %q are not returnable under the safety policy", category),
		ReasonCode:      models.ReasonCategoryExcluded,
		ProcessCategory: models.ProcessNone,
		NextSteps:       []string{"Contact support for exceptional cases"},
	}, true
}

// ruleTimeWindow rejects requests past the return window. The boundary is
// inclusive: elapsed days equal to the window is still eligible. Damage in
// transit does not waive the window.
func (e *PolicyEngine) ruleTimeWindow(in RuleInput) (*models.EligibilityDecision, bool) {
	elapsed := elapsedDays(in.DeliveredAt, in.RequestDate)
	if elapsed <= e.cfg.ReturnWindowDays {
		return nil, false
	}
	return &models.EligibilityDecision{
		Eligible:        false,
		Reason:          fmt.Sprintf("%d days have passed since delivery; the return window is %d days", elapsed, e.cfg.ReturnWindowDays),
		ReasonCode:      models.ReasonWindowExpired,
		ProcessCategory: models.ProcessNone,
	}, true
}

// ruleCondition rejects used products even inside the window.
func (e *PolicyEngine) ruleCondition(in RuleInput) (*models.EligibilityDecision, bool) {
	if in.Condition != models.ConditionUsed {
		return nil, false
	}
	return &models.EligibilityDecision{
		Eligible:        false,
		Reason:          "a product in used condition is not eligible for return",
		ReasonCode:      models.ReasonConditionUsed,
		ProcessCategory: models.ProcessNone,
	}, true
}

// ruleCategorize accepts whatever the earlier rules let through and assigns
// the logistics track and next steps.
func (e *PolicyEngine) ruleCategorize(in RuleInput) (*models.EligibilityDecision, bool) {
	elapsed := elapsedDays(in.DeliveredAt, in.RequestDate)

	decision := &models.EligibilityDecision{
		Eligible:      true,
		Reason:        fmt.Sprintf("within the %d-day window with condition %s", e.cfg.ReturnWindowDays, in.Condition),
		RemainingDays: e.cfg.ReturnWindowDays - elapsed,
	}

	if in.Condition == models.ConditionDamagedInTransit {
		decision.ProcessCategory = models.ProcessPriorityPickup
		decision.NextSteps = []string{
			"A courier will collect the product within the next 24 hours",
			"No packaging is needed",
			"You will receive a full refund within 3-5 business days",
		}
	} else {
		decision.ProcessCategory = models.ProcessStandardPickup
		decision.NextSteps = []string{
			"Print the return label",
			"Pack the product in its original box with all accessories",
			"Hand the package to the courier",
			"The refund is processed on receipt (5-7 business days)",
		}
	}

	return decision, true
}

// excludedCategory returns the first configured category matching the
// product, or the product's own category when its line refuses returns.
func excludedCategory(product *models.OrderProduct, excluded []string) string {
	for _, category := range excluded {
		if strings.EqualFold(strings.TrimSpace(category), product.Category) {
			return product.Category
		}
	}
	if !product.ReturnsAccepted {
		return product.Category
	}
	return ""
}

// elapsedDays counts whole days between delivery and request. A request
// stamped before the delivery date counts as day zero, never negative.
func elapsedDays(deliveredAt, requestDate time.Time) int {
	days := int(requestDate.Sub(deliveredAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
