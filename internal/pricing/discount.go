package pricing

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/pkg/validator"
)

// RuleKind distinguishes percentage discounts from flat currency discounts.
type RuleKind string

const (
	KindPercentage RuleKind = "percentage"
	KindFlat       RuleKind = "flat"
)

// Rule is one entry of the discount table.
type Rule struct {
	Kind  RuleKind `json:"kind" validate:"required,oneof=percentage flat"`
	Value float64  `json:"value" validate:"gt=0"`
}

// Resolve returns the discount this rule grants on subtotal, rounded to cents
// and capped at the subtotal.
func (r Rule) Resolve(subtotal float64) float64 {
	subtotal = domain.NormalizePrice(subtotal)
	var amount float64
	switch r.Kind {
	case KindPercentage:
		amount = subtotal * r.Value / 100
	case KindFlat:
		amount = r.Value
	}
	return domain.ClampAmount(domain.RoundCents(amount), subtotal)
}

// Table maps upper-case discount codes to rules. A Table is immutable once
// built; reloads produce a new Table.
type Table struct {
	rules map[string]Rule
}

// NewTable builds a validated table. Codes are trimmed and upper-cased.
func NewTable(rules map[string]Rule) (*Table, error) {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for code, rule := range rules {
		key := NormalizeCode(code)
		if key == "" {
			return nil, fmt.Errorf("discount table: empty code")
		}
		if err := validator.Validate(rule); err != nil {
			return nil, fmt.Errorf("discount table: code %s: %w", key, err)
		}
		if rule.Kind == KindPercentage && rule.Value > 100 {
			return nil, fmt.Errorf("discount table: code %s: percentage above 100", key)
		}
		t.rules[key] = rule
	}
	return t, nil
}

// DefaultTable returns the compiled-in discount codes.
func DefaultTable() *Table {
	return &Table{rules: map[string]Rule{
		"EASY10":  {Kind: KindPercentage, Value: 10},
		"EASY20":  {Kind: KindPercentage, Value: 20},
		"WELCOME": {Kind: KindPercentage, Value: 15},
		"SAVE50":  {Kind: KindFlat, Value: 50},
	}}
}

// Lookup finds code case-insensitively.
func (t *Table) Lookup(code string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	r, ok := t.rules[NormalizeCode(code)]
	return r, ok
}

// Len returns the number of codes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Codes returns a copy of the table contents.
func (t *Table) Codes() map[string]Rule {
	if t == nil {
		return map[string]Rule{}
	}
	return maps.Clone(t.rules)
}

// NormalizeCode trims and upper-cases a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LoadTableFile reads a JSON object of code → rule from path.
func LoadTableFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading discount table %s: %w", path, err)
	}
	var rules map[string]Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decoding discount table %s: %w", path, err)
	}
	return NewTable(rules)
}

// TableSource yields the discount table currently in effect.
type TableSource interface {
	Table() *Table
}

// StaticTable is a TableSource that never changes.
type StaticTable struct {
	T *Table
}

// Table implements TableSource.
func (s StaticTable) Table() *Table { return s.T }
