package celengine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var programCache = sync.Map{}

// Evaluator compiles and evaluates CEL expressions against a flat map of
// variables. Compiled programs are cached per expression and variable set,
// so schema predicates are compiled once per process.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvalBool evaluates expression with every vars entry exposed as a top-level
// CEL variable. The expression must produce a boolean.
func (e *Evaluator) EvalBool(expression string, vars map[string]any) (bool, error) {
	if expression == "" {
		return false, fmt.Errorf("expression must not be empty")
	}
	if vars == nil {
		vars = map[string]any{}
	}

	program, err := e.program(expression, vars)
	if err != nil {
		return false, err
	}

	result, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	boolean, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return a boolean, got %T", result.Value())
	}

	return boolean, nil
}

func (e *Evaluator) program(expression string, vars map[string]any) (cel.Program, error) {
	key := cacheKey(expression, vars)
	if v, ok := programCache.Load(key); ok {
		return v.(cel.Program), nil
	}

	opts := make([]cel.EnvOption, 0, len(vars))
	for name := range vars {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	programCache.Store(key, program)
	return program, nil
}

func cacheKey(expression string, vars map[string]any) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return expression + "|" + strings.Join(names, ",")
}
