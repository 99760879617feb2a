package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Guard decides whether an event should be processed at all. The expression
// sees:
//
//	event      the platform event name, e.g. databases.main.collections.bookings.documents.abc.create
//	trigger    how the function was invoked: "event", "http" or "schedule"
//	record     the created document
//	collection the document's $collectionId
//	database   the document's $databaseId
//
// A nil Guard allows everything.
type Guard struct {
	expression string
	program    *vm.Program
}

// NewGuard compiles expression. An empty expression returns a nil Guard.
func NewGuard(expression string) (*Guard, error) {
	if expression == "" {
		return nil, nil
	}
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile trigger condition: %w", err)
	}
	return &Guard{expression: expression, program: prog}, nil
}

func (g *Guard) String() string {
	if g == nil {
		return ""
	}
	return g.expression
}

// Allow evaluates the condition for one invocation.
func (g *Guard) Allow(event, trigger string, b *Booking) (bool, error) {
	if g == nil {
		return true, nil
	}

	env := map[string]any{
		"event":      event,
		"trigger":    trigger,
		"record":     b.Fields,
		"collection": b.CollectionID,
		"database":   b.DatabaseID,
	}
	result, err := expr.Run(g.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate trigger condition: %w", err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("trigger condition did not return bool")
	}
	return ok, nil
}
