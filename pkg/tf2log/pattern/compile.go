package pattern

import (
	"fmt"

	"github.com/tf2obs/tf2obs-go/internal/parser"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Compile turns a validated rule file into classifier rules, in file order.
//
// Example:
//
//	rf, err := pattern.Load("rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rules, err := pattern.Compile(rf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := tf2log.NewClassifier("Alice", rules...)
func Compile(rf *RuleFile) ([]tf2log.Rule, error) {
	if rf == nil {
		return nil, fmt.Errorf("rule file is nil")
	}

	rules := make([]tf2log.Rule, 0, len(rf.Rules))
	for i, rule := range rf.Rules {
		kind, ok := event.ParseKind(rule.Kind)
		if !ok {
			return nil, &RuleError{Index: i, ID: rule.ID, Field: "kind", Message: fmt.Sprintf("unknown kind %q", rule.Kind)}
		}
		scope := parser.ScopeActor
		if rule.Scope != "" {
			if scope, ok = parser.ParseScope(rule.Scope); !ok {
				return nil, &RuleError{Index: i, ID: rule.ID, Field: "scope", Message: fmt.Sprintf("unknown scope %q", rule.Scope)}
			}
		}

		re, err := parser.Compile(rule.Regex)
		if err != nil {
			return nil, &RuleError{
				Index:   i,
				ID:      rule.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}
		if (kind == event.Damage || kind == event.Heal) && re.SubexpIndex("amount") < 0 {
			return nil, &RuleError{
				Index:   i,
				ID:      rule.ID,
				Field:   "regex",
				Message: fmt.Sprintf("%s rules need an amount group", kind),
			}
		}
		if scope != parser.ScopeWorld && re.SubexpIndex("actor") < 0 && re.SubexpIndex("target") < 0 {
			return nil, &RuleError{
				Index:   i,
				ID:      rule.ID,
				Field:   "regex",
				Message: fmt.Sprintf("%s scope needs an actor or target group", scope),
			}
		}

		rules = append(rules, tf2log.Rule{
			ID:      rule.ID,
			Pattern: re,
			Kind:    kind,
			Scope:   scope,
		})
	}
	return rules, nil
}

// LoadRules is a convenience function that loads and compiles a rule file.
func LoadRules(path string) ([]tf2log.Rule, error) {
	rf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(rf)
}
