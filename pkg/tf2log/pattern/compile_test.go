package pattern_test

import (
	"errors"
	"regexp/syntax"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/pattern"
)

func TestLoadRules_ClassifiesBeforeBuiltins(t *testing.T) {
	rules, err := pattern.LoadRules(writeFile(t, validYAML))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, tf2log.ScopeVersus, rules[0].Scope)
	assert.Equal(t, tf2log.ScopeActor, rules[1].Scope)

	c := tf2log.NewClassifier("Alice", rules...)

	ev, ok := c.Classify(`"Alice<2><[U:1:2]><Red>" humiliated "Bob<3><[U:1:3]><Blue>"`)
	require.True(t, ok)
	assert.Equal(t, tf2log.KindKill, ev.Kind)
	assert.Equal(t, 1, ev.Value())

	ev, ok = c.Classify(`Alice triggered "object_sapped" (object "OBJ_SENTRYGUN")`)
	require.True(t, ok)
	assert.Equal(t, tf2log.KindDestroy, ev.Kind)
	assert.Equal(t, "OBJ_SENTRYGUN", ev.Subject)
}

func TestCompile_InvalidRegex(t *testing.T) {
	rf, err := pattern.LoadBytes([]byte("version: 1\nrules:\n  - id: bad\n    kind: kill\n    regex: '^{actor} (unclosed'\n"))
	require.NoError(t, err, "validation does not compile regexes")

	_, err = pattern.Compile(rf)
	var ruleErr *pattern.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "bad", ruleErr.ID)

	var synErr *syntax.Error
	assert.True(t, errors.As(err, &synErr), "cause is kept")
}

func TestCompile_AmountRequired(t *testing.T) {
	rf, err := pattern.LoadBytes([]byte("version: 1\nrules:\n  - id: dmg\n    kind: damage\n    regex: '^{actor} hurt {target}'\n"))
	require.NoError(t, err)

	_, err = pattern.Compile(rf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount group")
}

func TestCompile_PlayerGroupRequired(t *testing.T) {
	rf, err := pattern.LoadBytes([]byte("version: 1\nrules:\n  - id: anon\n    kind: capture\n    regex: 'point captured'\n"))
	require.NoError(t, err)

	_, err = pattern.Compile(rf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actor scope")

	rf.Rules[0].Scope = "world"
	rules, err := pattern.Compile(rf)
	require.NoError(t, err)
	assert.Equal(t, tf2log.ScopeWorld, rules[0].Scope)
}

func TestCompile_Nil(t *testing.T) {
	_, err := pattern.Compile(nil)
	assert.Error(t, err)
}
