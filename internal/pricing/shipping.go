package pricing

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/utafrali/shopstate/internal/domain"
)

// ShippingPolicy computes the shipping fee for a non-empty cart.
type ShippingPolicy interface {
	Fee(subtotal float64, itemCount int) float64
}

// ThresholdShipping charges Charge below FreeAbove and nothing at or above it.
type ThresholdShipping struct {
	FreeAbove float64
	Charge    float64
}

// Fee implements ShippingPolicy.
func (s ThresholdShipping) Fee(subtotal float64, _ int) float64 {
	if subtotal >= s.FreeAbove {
		return 0
	}
	return domain.NormalizePrice(s.Charge)
}

func shippingEnv(subtotal float64, items int) map[string]any {
	return map[string]any{"subtotal": subtotal, "items": items}
}

// ExprShipping evaluates a compiled expression such as
// `subtotal >= 75 ? 0 : (items > 3 ? 9.99 : 5.99)`. Evaluation errors and
// non-numeric results fall back to Fallback.
type ExprShipping struct {
	source   string
	program  *vm.Program
	fallback ShippingPolicy
	logger   *slog.Logger
}

// NewExprShipping compiles rule. The expression must yield a number.
func NewExprShipping(rule string, fallback ShippingPolicy, logger *slog.Logger) (*ExprShipping, error) {
	if rule == "" {
		return nil, fmt.Errorf("shipping rule must not be empty")
	}
	program, err := expr.Compile(rule, expr.Env(shippingEnv(0, 0)), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compiling shipping rule %q: %w", rule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExprShipping{source: rule, program: program, fallback: fallback, logger: logger}, nil
}

// Fee implements ShippingPolicy.
func (s *ExprShipping) Fee(subtotal float64, itemCount int) float64 {
	out, err := expr.Run(s.program, shippingEnv(subtotal, itemCount))
	if err == nil {
		switch fee := out.(type) {
		case float64:
			return domain.NormalizePrice(fee)
		case int:
			return domain.NormalizePrice(float64(fee))
		}
		err = fmt.Errorf("unexpected result type %T", out)
	}
	s.logger.Warn("shipping rule evaluation failed, using fallback",
		slog.String("rule", s.source),
		slog.String("error", err.Error()),
	)
	if s.fallback == nil {
		return 0
	}
	return s.fallback.Fee(subtotal, itemCount)
}
