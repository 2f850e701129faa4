// Package formula validates and evaluates the restricted arithmetic
// expressions administrators attach to numeric metadata fields. A formula is a
// suffix such as "/60" applied after a counter value, e.g. "120/60".
package formula

import (
	"math"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"

	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

// bodyPattern matches the formula once parentheses are removed: groups of an
// operator and a decimal number. The leading operator may be omitted only when
// the raw formula opened with a parenthesis.
var bodyPattern = regexp.MustCompile(`^(?:[-+*/%]?\d+(?:\.\d+)?)(?:[-+*/%]\d+(?:\.\d+)?)*$`)

// Validate reports whether the formula is syntactically acceptable. The check
// is deliberately naive about parentheses: it only requires that both kinds
// appear together, that the first one is an opening one and that the running
// count ends at zero.
func Validate(raw string) bool {
	if raw == "" {
		return false
	}
	first := raw[0]
	if first != '(' && !strings.ContainsRune("-+*/%", rune(first)) {
		return false
	}

	body := strings.Map(func(r rune) rune {
		if r == '(' || r == ')' {
			return -1
		}
		return r
	}, raw)
	if !bodyPattern.MatchString(body) {
		return false
	}
	if first != '(' && !strings.ContainsRune("-+*/%", rune(body[0])) {
		return false
	}

	open := strings.IndexByte(raw, '(')
	closing := strings.IndexByte(raw, ')')
	if open == -1 && closing == -1 {
		return true
	}
	// One kind of parenthesis without the other is always wrong.
	if open == -1 || closing == -1 {
		return false
	}
	if closing < open {
		return false
	}
	depth := 0
	for _, r := range raw {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth == 0
}

// Evaluator computes arithmetic expressions. It is injected so the totals
// converter can be tested without a real expression engine.
type Evaluator interface {
	Evaluate(expr string) (float64, error)
}

// GovalEvaluator evaluates expressions with govaluate.
type GovalEvaluator struct{}

// NewEvaluator returns the default evaluator.
func NewEvaluator() GovalEvaluator {
	return GovalEvaluator{}
}

// Evaluate parses and computes the expression, failing with a FORMULA_ERROR
// on malformed input, non-numeric results, division by zero and overflow.
func (GovalEvaluator) Evaluate(expr string) (float64, error) {
	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrFormula.Code, apperrors.ErrFormula.Status, "malformed formula")
	}
	result, err := parsed.Evaluate(nil)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrFormula.Code, apperrors.ErrFormula.Status, "formula evaluation failed")
	}
	value, ok := result.(float64)
	if !ok {
		return 0, apperrors.Clone(apperrors.ErrFormula, "formula did not produce a number")
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, apperrors.Clone(apperrors.ErrFormula, "formula produced a non-finite number")
	}
	return value, nil
}
