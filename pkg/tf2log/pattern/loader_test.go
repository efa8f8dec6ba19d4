package pattern_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/pattern"
)

const validYAML = `version: 1
rules:
  - id: humiliation
    kind: kill
    scope: versus
    regex: '^{actor} humiliated {target}{tail}'
  - id: sapper
    kind: destroy
    regex: '^{actor} triggered "object_sapped" \(object "(?P<subject>\w+)"\)'
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	rf, err := pattern.Load(writeFile(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, rf.Version)
	require.Len(t, rf.Rules, 2)
	assert.Equal(t, "humiliation", rf.Rules[0].ID)
	assert.Equal(t, "kill", rf.Rules[0].Kind)
	assert.Equal(t, "versus", rf.Rules[0].Scope)
	assert.Equal(t, "", rf.Rules[1].Scope)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantRule bool
		contains string
	}{
		{
			name:     "unsupported version",
			yaml:     "version: 2\nrules:\n  - id: a\n    kind: kill\n    regex: x\n",
			contains: "unsupported version",
		},
		{
			name:     "no rules",
			yaml:     "version: 1\nrules: []\n",
			contains: "at least one rule",
		},
		{
			name:     "missing id",
			yaml:     "version: 1\nrules:\n  - kind: kill\n    regex: x\n",
			wantRule: true,
			contains: "id is required",
		},
		{
			name:     "missing kind",
			yaml:     "version: 1\nrules:\n  - id: a\n    regex: x\n",
			wantRule: true,
			contains: "kind is required",
		},
		{
			name:     "unknown kind",
			yaml:     "version: 1\nrules:\n  - id: a\n    kind: teabag\n    regex: x\n",
			wantRule: true,
			contains: "unknown kind",
		},
		{
			name:     "unknown scope",
			yaml:     "version: 1\nrules:\n  - id: a\n    kind: kill\n    scope: team\n    regex: x\n",
			wantRule: true,
			contains: "unknown scope",
		},
		{
			name:     "missing regex",
			yaml:     "version: 1\nrules:\n  - id: a\n    kind: kill\n",
			wantRule: true,
			contains: "regex is required",
		},
		{
			name:     "duplicate id",
			yaml:     "version: 1\nrules:\n  - id: a\n    kind: kill\n    regex: x\n  - id: a\n    kind: death\n    regex: y\n",
			wantRule: true,
			contains: "duplicate id",
		},
		{
			name:     "regex too long",
			yaml:     "version: 1\nrules:\n  - id: a\n    kind: kill\n    regex: '" + strings.Repeat("a", pattern.MaxRegexLength+1) + "'\n",
			wantRule: true,
			contains: "regex too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pattern.LoadBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var ruleErr *pattern.RuleError
			var valErr *pattern.ValidationError
			if tt.wantRule {
				assert.True(t, errors.As(err, &ruleErr))
			} else {
				assert.True(t, errors.As(err, &valErr))
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := pattern.Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open rule file")
	assert.NotContains(t, err.Error(), "nonexistent.yaml", "path must not leak")
}

func TestLoad_NotRegular(t *testing.T) {
	_, err := pattern.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regular file")
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := pattern.Load(writeFile(t, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = pattern.LoadBytes(nil)
	require.Error(t, err)
}

func TestLoadBytes_TooLarge(t *testing.T) {
	_, err := pattern.LoadBytes(make([]byte, pattern.MaxRuleFileSize+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadBytes_InvalidYAML(t *testing.T) {
	_, err := pattern.LoadBytes([]byte("version: [1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}
