package ui

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/toumakido/my-claude/todod/internal/model"
)

// filterEnv is what a filter expression can see of a todo.
type filterEnv struct {
	ID        int    `expr:"id"`
	Title     string `expr:"title"`
	Completed bool   `expr:"completed"`
	Order     int    `expr:"order"`
}

// Filter is a compiled boolean expression over todos, e.g.
// `!completed && order < 3` or `title contains "milk"`.
type Filter struct {
	program *vm.Program
}

func CompileFilter(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return &Filter{program: program}, nil
}

func (f *Filter) Match(t model.Todo) (bool, error) {
	out, err := expr.Run(f.program, filterEnv{
		ID:        t.ID,
		Title:     t.TitleOrEmpty(),
		Completed: t.CompletedOrDefault(),
		Order:     t.OrderOrDefault(),
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// Apply returns the todos matching f, keeping their order.
func (f *Filter) Apply(todos []model.Todo) ([]model.Todo, error) {
	var out []model.Todo
	for _, t := range todos {
		ok, err := f.Match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
