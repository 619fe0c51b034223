package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Subject describes a detected capture attachment for reply filtering.
type Subject struct {
	ChannelID string
	GuildID   string
	UserID    string
	UserName  string
	Filename  string
	IsDM      bool
}

func (s Subject) vars() map[string]interface{} {
	return map[string]interface{}{
		"channel_id": s.ChannelID,
		"guild_id":   s.GuildID,
		"user_id":    s.UserID,
		"user_name":  s.UserName,
		"filename":   s.Filename,
		"is_dm":      s.IsDM,
	}
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("channel_id", cel.StringType),
		cel.Variable("guild_id", cel.StringType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("user_name", cel.StringType),
		cel.Variable("filename", cel.StringType),
		cel.Variable("is_dm", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	_, err := e.compile(expression)
	return err
}

func (e *Evaluator) compile(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	return ast, nil
}

// Filter is a compiled reply filter. A nil Filter allows everything.
type Filter struct {
	expression string
	program    cel.Program
}

// CompileFilter compiles expression once for repeated evaluation. An empty
// expression yields a nil Filter.
func (e *Evaluator) CompileFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}

	ast, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Filter{expression: expression, program: program}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return "true"
	}
	return f.expression
}

func (f *Filter) Allow(ctx context.Context, s Subject) (bool, error) {
	if f == nil {
		return true, nil
	}

	result, _, err := f.program.ContextEval(ctx, s.vars())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
