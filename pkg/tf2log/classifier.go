package tf2log

import (
	"context"

	"github.com/tf2obs/tf2obs-go/internal/parser"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Classifier turns console log lines into events for one watched player.
//
// A Classifier owns its State and is not safe for concurrent use; the
// Watcher drives it from a single goroutine.
type Classifier struct {
	state *event.State
	rules []parser.Rule
}

// NewClassifier returns a classifier for player. Extra rules are tried
// before the built-in table, in the order given.
func NewClassifier(player string, extra ...Rule) *Classifier {
	rules := parser.DefaultRules()
	if len(extra) > 0 {
		merged := make([]parser.Rule, 0, len(extra)+len(rules))
		merged = append(merged, extra...)
		rules = append(merged, rules...)
	}
	return &Classifier{
		state: event.NewState(player),
		rules: rules,
	}
}

// Classify classifies one line and updates the classifier state.
// It reports false when the line produced no event.
func (c *Classifier) Classify(line string) (Event, bool) {
	return parser.Classify(line, c.state, c.rules)
}

// ParseLine implements Parser.
func (c *Classifier) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return ParseResult{}, err
	}
	ev, ok := c.Classify(line)
	if !ok {
		return ParseResult{}, nil
	}
	return ParseResult{Events: []Event{ev}, Matched: true}, nil
}

// State returns a snapshot of the current session state.
func (c *Classifier) State() State {
	return *c.state
}

// Reset clears the killstreak and class, keeping the watched player.
func (c *Classifier) Reset() {
	*c.state = *event.NewState(c.state.Player)
}

// Classify classifies line with the built-in rules, updating st in place.
// A nil st classifies world-scope lines only.
//
// Example:
//
//	st := tf2log.NewState("Alice")
//	ev, ok := tf2log.Classify(`"Alice" killed "Bob" with "scattergun"`, st)
//	// ev.Kind == tf2log.KindKill, *ev.Magnitude == 1
func Classify(line string, st *State) (Event, bool) {
	return parser.Classify(line, st, parser.DefaultRules())
}

// NewState returns a fresh state for player.
func NewState(player string) *State {
	return event.NewState(player)
}

var _ Parser = (*Classifier)(nil)
