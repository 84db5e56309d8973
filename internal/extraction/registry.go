package extraction

import (
	"fmt"
	"strings"

	"github.com/card-statement-ledger/internal/domain/statement"
)

// AmbiguityPolicy decides what happens when a document carries more than one fingerprint
type AmbiguityPolicy string

const (
	// AmbiguityFirstMatch picks the first format in registration order
	AmbiguityFirstMatch AmbiguityPolicy = "first_match"
	// AmbiguityReject treats an ambiguous document as unsupported
	AmbiguityReject AmbiguityPolicy = "reject"
)

// ParseAmbiguityPolicy maps a configuration value to a policy. Empty selects first_match.
func ParseAmbiguityPolicy(value string) (AmbiguityPolicy, error) {
	switch AmbiguityPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", AmbiguityFirstMatch:
		return AmbiguityFirstMatch, nil
	case AmbiguityReject:
		return AmbiguityReject, nil
	default:
		return "", fmt.Errorf("unknown ambiguity policy %q", value)
	}
}

// Registry is the ordered registration table of format rule sets
type Registry struct {
	rules  []*FormatRuleSet
	byID   map[statement.FormatID]*FormatRuleSet
	policy AmbiguityPolicy
}

// NewRegistry registers rule sets in detection order. Each format may be registered once.
func NewRegistry(policy AmbiguityPolicy, rules ...*FormatRuleSet) (*Registry, error) {
	if policy != AmbiguityFirstMatch && policy != AmbiguityReject {
		return nil, fmt.Errorf("unknown ambiguity policy %q", policy)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("registry needs at least one format")
	}

	byID := make(map[statement.FormatID]*FormatRuleSet, len(rules))
	for _, r := range rules {
		if _, exists := byID[r.Format()]; exists {
			return nil, fmt.Errorf("format %s registered twice", r.Format())
		}
		byID[r.Format()] = r
	}

	return &Registry{
		rules:  append([]*FormatRuleSet(nil), rules...),
		byID:   byID,
		policy: policy,
	}, nil
}

// DefaultRegistry holds every built-in format, EBL first
func DefaultRegistry(policy AmbiguityPolicy) (*Registry, error) {
	return NewRegistry(policy, EBLRules(), MTBRules())
}

// Detect returns the rule set whose fingerprint appears in text
func (r *Registry) Detect(text string) (*FormatRuleSet, error) {
	var matched []*FormatRuleSet
	for _, rules := range r.rules {
		if !rules.Matches(text) {
			continue
		}
		if r.policy == AmbiguityFirstMatch {
			return rules, nil
		}
		matched = append(matched, rules)
	}

	switch len(matched) {
	case 0:
		return nil, statement.ErrUnsupportedFormat
	case 1:
		return matched[0], nil
	default:
		ids := make([]string, 0, len(matched))
		for _, m := range matched {
			ids = append(ids, m.Format().String())
		}
		return nil, fmt.Errorf("%w: %w (%s)", statement.ErrUnsupportedFormat, statement.ErrAmbiguousFormat, strings.Join(ids, ", "))
	}
}

// Lookup returns the rule set registered for a format
func (r *Registry) Lookup(id statement.FormatID) (*FormatRuleSet, bool) {
	rules, ok := r.byID[id]
	return rules, ok
}

// Formats lists the registered formats in detection order
func (r *Registry) Formats() []statement.FormatID {
	ids := make([]statement.FormatID, 0, len(r.rules))
	for _, rules := range r.rules {
		ids = append(ids, rules.Format())
	}
	return ids
}

func (r *Registry) Policy() AmbiguityPolicy {
	return r.policy
}
