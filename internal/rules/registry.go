package rules

import (
	"fmt"
	"strings"
)

// Registry is an ordered set of rules addressable by id.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Default returns a registry holding the built-in catalogue.
func Default() *Registry {
	r := NewRegistry()
	for _, group := range [][]Rule{securityRules, bugRules, performanceRules, qualityRules} {
		for _, rule := range group {
			if err := r.Register(rule); err != nil {
				panic(err)
			}
		}
	}
	return r
}

// Register appends a rule. Ids are unique, compared case-insensitively.
func (r *Registry) Register(rule Rule) error {
	key := normalizeID(rule.Meta().ID)
	if key == "" {
		return fmt.Errorf("rule has no id")
	}
	if _, ok := r.index[key]; ok {
		return fmt.Errorf("rule %s already registered", rule.Meta().ID)
	}
	r.rules = append(r.rules, rule)
	r.index[key] = len(r.rules) - 1
	return nil
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Get looks a rule up by id.
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.index[normalizeID(id)]
	if !ok {
		return nil, false
	}
	return r.rules[i], true
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
