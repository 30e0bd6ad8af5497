package editing

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jask/gridcore/internal/grid"
)

// Rule checks a pending value. It returns an empty string when the value is
// acceptable, otherwise a human readable message.
type Rule interface {
	Check(value any, row map[string]any) string
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(value any, row map[string]any) string

func (f RuleFunc) Check(value any, row map[string]any) string { return f(value, row) }

// Compile turns a declarative rule into a Rule. Malformed arguments are
// reported here, at column setup, rather than during editing.
func Compile(spec grid.RuleSpec) (Rule, error) {
	msg := func(def string) string {
		if spec.Message != "" {
			return spec.Message
		}
		return def
	}
	switch strings.ToLower(spec.Kind) {
	case "required":
		m := msg("value is required")
		return RuleFunc(func(v any, _ map[string]any) string {
			if v == nil || strings.TrimSpace(grid.Stringify(v)) == "" {
				return m
			}
			return ""
		}), nil
	case "minlength", "maxlength":
		n, err := strconv.Atoi(strings.TrimSpace(spec.Arg))
		if err != nil {
			return nil, fmt.Errorf("rule %s: bad length %q: %w", spec.Kind, spec.Arg, err)
		}
		if strings.EqualFold(spec.Kind, "minlength") {
			m := msg(fmt.Sprintf("must be at least %d characters", n))
			return RuleFunc(func(v any, _ map[string]any) string {
				if utf8.RuneCountInString(grid.Stringify(v)) < n {
					return m
				}
				return ""
			}), nil
		}
		m := msg(fmt.Sprintf("must be at most %d characters", n))
		return RuleFunc(func(v any, _ map[string]any) string {
			if utf8.RuneCountInString(grid.Stringify(v)) > n {
				return m
			}
			return ""
		}), nil
	case "min", "max":
		bound, err := strconv.ParseFloat(strings.TrimSpace(spec.Arg), 64)
		if err != nil {
			return nil, fmt.Errorf("rule %s: bad bound %q: %w", spec.Kind, spec.Arg, err)
		}
		isMin := strings.EqualFold(spec.Kind, "min")
		var m string
		if isMin {
			m = msg(fmt.Sprintf("must be at least %s", spec.Arg))
		} else {
			m = msg(fmt.Sprintf("must be at most %s", spec.Arg))
		}
		return RuleFunc(func(v any, _ map[string]any) string {
			if v == nil {
				return ""
			}
			n, ok := grid.ParseNumber(v)
			if !ok {
				return msg("must be a number")
			}
			if (isMin && n < bound) || (!isMin && n > bound) {
				return m
			}
			return ""
		}), nil
	case "pattern":
		re, err := regexp.Compile(spec.Arg)
		if err != nil {
			return nil, fmt.Errorf("rule pattern: %w", err)
		}
		m := msg(fmt.Sprintf("must match %s", spec.Arg))
		return RuleFunc(func(v any, _ map[string]any) string {
			if v == nil || re.MatchString(grid.Stringify(v)) {
				return ""
			}
			return m
		}), nil
	case "oneof":
		var options []string
		for _, o := range strings.Split(spec.Arg, ",") {
			options = append(options, strings.TrimSpace(o))
		}
		m := msg("must be one of " + strings.Join(options, ", "))
		return RuleFunc(func(v any, _ map[string]any) string {
			if v == nil || slices.Contains(options, grid.Stringify(v)) {
				return ""
			}
			return m
		}), nil
	case "expr":
		return newExprRule(spec.Arg, msg("invalid value"))
	}
	return nil, fmt.Errorf("unknown rule kind %q", spec.Kind)
}

// CompileAll compiles every spec, stopping at the first error.
func CompileAll(specs []grid.RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := Compile(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ruleEnv is what expression rules can see: the pending value and the rest
// of the row.
type ruleEnv struct {
	Value any            `expr:"value"`
	Row   map[string]any `expr:"row"`
}

type exprRule struct {
	source  string
	program *vm.Program
	message string
}

// newExprRule compiles a boolean expr-lang expression such as
// `value > 0 && value <= row.limit`.
func newExprRule(source, message string) (*exprRule, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("rule expr: empty expression")
	}
	program, err := expr.Compile(source,
		expr.Env(ruleEnv{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("rule expr %q: %w", source, err)
	}
	return &exprRule{source: source, program: program, message: message}, nil
}

func (r *exprRule) Check(value any, row map[string]any) string {
	out, err := expr.Run(r.program, ruleEnv{Value: value, Row: row})
	if err != nil {
		return fmt.Sprintf("%s (%v)", r.message, err)
	}
	if ok, _ := out.(bool); !ok {
		return r.message
	}
	return ""
}
