// Package intent routes inbound free text to the informational or
// operational path. Whatever judgment backs an implementation, its output is
// always one of the three fixed variants, never free text.
package intent

import (
	"context"
	"regexp"
	"strings"
)

// Type is the classification of an inbound request
type Type string

const (
	Informational Type = "INFORMATIONAL"
	Operational   Type = "OPERATIONAL"
	Ambiguous     Type = "AMBIGUOUS"
)

// Result carries the classification and any entities extracted from the text
type Result struct {
	Type      Type
	OrderID   string
	ProductID string
}

// Classifier classifies a raw request, optionally informed by prior turns.
// Implementations must be side-effect free.
type Classifier interface {
	Classify(ctx context.Context, text string, priorTurns []string) (Result, error)
}

// Action verbs that mark a request as operational. Matching is
// case-insensitive on whole words.
var actionVerbs = []string{
	"return",
	"send back",
	"initiate",
	"refund me",
	"ship back",
	"give back",
	"devolver",
}

// Nouns that follow "return" when it is the noun, not the verb
// ("return policy", "return window"). Those are questions, not requests.
var returnNouns = map[string]bool{
	"policy":   true,
	"policies": true,
	"window":   true,
	"label":    true,
	"labels":   true,
	"process":  true,
	"shipping": true,
	"status":   true,
}

var (
	orderIDPattern   = regexp.MustCompile(`(?i)\b(?:order|pedido|tracking|#)\s*#?\s*(\d{4,})\b|\b(\d{5,})\b`)
	productIDPattern = regexp.MustCompile(`(?i)\bproduct\s+([A-Za-z0-9-]+)\b`)
)

// RuleClassifier is the heuristic implementation: an explicit action verb
// plus an identifiable order reference makes a request operational; an
// action verb without an order reference is ambiguous and must be clarified,
// never guessed; everything else is informational.
type RuleClassifier struct{}

// NewRuleClassifier creates the heuristic classifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (rc *RuleClassifier) Classify(ctx context.Context, text string, priorTurns []string) (Result, error) {
	lowered := strings.ToLower(text)

	hasVerb := containsActionVerb(lowered)
	orderID := extractOrderID(text)

	// A prior turn may already have named the order.
	if orderID == "" {
		for i := len(priorTurns) - 1; i >= 0; i-- {
			if id := extractOrderID(priorTurns[i]); id != "" {
				orderID = id
				break
			}
		}
	}

	result := Result{OrderID: orderID, ProductID: extractProductID(text)}

	switch {
	case hasVerb && orderID != "":
		result.Type = Operational
	case hasVerb:
		result.Type = Ambiguous
	default:
		result.Type = Informational
	}

	return result, nil
}

func containsActionVerb(lowered string) bool {
	for _, verb := range actionVerbs {
		idx := strings.Index(lowered, verb)
		for idx >= 0 {
			before := idx == 0 || !isWordChar(lowered[idx-1])
			afterIdx := idx + len(verb)
			after := afterIdx >= len(lowered) || !isWordChar(lowered[afterIdx])
			if before && after {
				if verb != "return" || !followedByReturnNoun(lowered, afterIdx) {
					return true
				}
			}
			next := strings.Index(lowered[idx+1:], verb)
			if next < 0 {
				break
			}
			idx = idx + 1 + next
		}
	}
	return false
}

// followedByReturnNoun reports whether the next word after idx makes
// "return" a noun phrase.
func followedByReturnNoun(lowered string, idx int) bool {
	for idx < len(lowered) && lowered[idx] == ' ' {
		idx++
	}
	start := idx
	for idx < len(lowered) && isWordChar(lowered[idx]) {
		idx++
	}
	return returnNouns[lowered[start:idx]]
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func extractOrderID(text string) string {
	matches := orderIDPattern.FindStringSubmatch(text)
	if matches == nil {
		return ""
	}
	if matches[1] != "" {
		return matches[1]
	}
	return matches[2]
}

func extractProductID(text string) string {
	matches := productIDPattern.FindStringSubmatch(text)
	if matches == nil {
		return ""
	}
	return matches[1]
}
