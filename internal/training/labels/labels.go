// Package labels compiles the configurable CEL rules that derive training
// labels from reservation facts.
package labels

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"facility-ml/internal/common/config"
	stderrors "facility-ml/internal/common/errors"
)

// Variables each rule may reference.
var (
	riskVars = []cel.EnvOption{
		cel.Variable("status", cel.StringType),
		cel.Variable("auto_approved", cel.BoolType),
		cel.Variable("is_commercial", cel.BoolType),
		cel.Variable("expected_attendees", cel.IntType),
		cel.Variable("facility_auto_approve", cel.BoolType),
		cel.Variable("user_is_verified", cel.BoolType),
		cel.Variable("user_violation_count", cel.IntType),
	}

	conflictVars = []cel.EnvOption{
		cel.Variable("status", cel.StringType),
		cel.Variable("facility_id", cel.IntType),
		cel.Variable("other_approved_same_day", cel.IntType),
		cel.Variable("other_pending_same_day", cel.IntType),
	}

	unclearVars = []cel.EnvOption{
		cel.Variable("purpose", cel.StringType),
		cel.Variable("status", cel.StringType),
	}
)

const costLimit = 100000

// Rule is one compiled boolean expression.
type Rule struct {
	name       string
	expression string
	program    cel.Program
}

// Compile type-checks expression against vars and requires a bool result.
func Compile(name, expression string, vars ...cel.EnvOption) (*Rule, error) {
	env, err := cel.NewEnv(vars...)
	if err != nil {
		return nil, stderrors.NewLabelRuleInvalidError(name, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, stderrors.NewLabelRuleInvalidError(name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, stderrors.NewLabelRuleInvalidError(name,
			fmt.Errorf("expression yields %s, want bool", ast.OutputType()))
	}
	prog, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, stderrors.NewLabelRuleInvalidError(name, err)
	}
	return &Rule{name: name, expression: expression, program: prog}, nil
}

func (r *Rule) String() string {
	return r.expression
}

// Match evaluates the rule against facts.
func (r *Rule) Match(facts map[string]any) (bool, error) {
	out, _, err := r.program.Eval(facts)
	if err != nil {
		return false, fmt.Errorf("rule %s: %w", r.name, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %s: non-boolean result %v", r.name, out.Value())
	}
	return matched, nil
}

// Rules are the compiled label rules of one training run.
type Rules struct {
	RiskLow      *Rule
	Conflict     *Rule
	UnclearExtra *Rule
}

func New(cfg config.LabelRules) (*Rules, error) {
	riskLow, err := Compile("risk_low", cfg.RiskLow, riskVars...)
	if err != nil {
		return nil, err
	}
	conflict, err := Compile("conflict", cfg.Conflict, conflictVars...)
	if err != nil {
		return nil, err
	}
	unclear, err := Compile("unclear_extra", cfg.UnclearExtra, unclearVars...)
	if err != nil {
		return nil, err
	}
	return &Rules{RiskLow: riskLow, Conflict: conflict, UnclearExtra: unclear}, nil
}

// RiskFacts are the inputs of the risk rule.
type RiskFacts struct {
	Status              string
	AutoApproved        bool
	IsCommercial        bool
	ExpectedAttendees   int
	FacilityAutoApprove bool
	UserIsVerified      bool
	UserViolations      int
}

// RiskLabel returns "0" for a low-risk reservation and "1" otherwise.
func (r *Rules) RiskLabel(f RiskFacts) (string, error) {
	low, err := r.RiskLow.Match(map[string]any{
		"status":                f.Status,
		"auto_approved":         f.AutoApproved,
		"is_commercial":         f.IsCommercial,
		"expected_attendees":    int64(f.ExpectedAttendees),
		"facility_auto_approve": f.FacilityAutoApprove,
		"user_is_verified":      f.UserIsVerified,
		"user_violation_count":  int64(f.UserViolations),
	})
	if err != nil {
		return "", err
	}
	if low {
		return "0", nil
	}
	return "1", nil
}

// ConflictFacts describe a reservation against the others on its facility and day.
type ConflictFacts struct {
	Status               string
	FacilityID           int64
	OtherApprovedSameDay int
	OtherPendingSameDay  int
}

// ConflictLabel returns "1" when the reservation conflicts.
func (r *Rules) ConflictLabel(f ConflictFacts) (string, error) {
	hit, err := r.Conflict.Match(map[string]any{
		"status":                  f.Status,
		"facility_id":             f.FacilityID,
		"other_approved_same_day": int64(f.OtherApprovedSameDay),
		"other_pending_same_day":  int64(f.OtherPendingSameDay),
	})
	if err != nil {
		return "", err
	}
	if hit {
		return "1", nil
	}
	return "0", nil
}

// ExtraUnclear reports whether the configured rule flags purpose as unclear.
func (r *Rules) ExtraUnclear(purpose, status string) (bool, error) {
	return r.UnclearExtra.Match(map[string]any{
		"purpose": purpose,
		"status":  status,
	})
}
