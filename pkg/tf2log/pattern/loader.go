package pattern

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tf2obs/tf2obs-go/internal/parser"
	"github.com/tf2obs/tf2obs-go/internal/safefile"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

const (
	// MaxRuleFileSize is the maximum allowed size for a rule file (1MB).
	MaxRuleFileSize = 1 * 1024 * 1024

	// MaxRegexLength is the maximum allowed length of a rule regex before
	// placeholder expansion.
	MaxRegexLength = 512

	// MaxRuleCount is the maximum number of rules allowed in a file.
	// Every line is matched against every rule, so this bounds per-line cost.
	MaxRuleCount = 1000

	// SupportedVersion is the currently supported rule file format version.
	SupportedVersion = 1
)

// Load reads and validates a rule file.
//
// Only regular files are accepted, and reads are capped at MaxRuleFileSize.
//
// Example:
//
//	rf, err := pattern.Load("rules.yaml")
//	if err != nil {
//	    log.Fatalf("failed to load rule file: %v", err)
//	}
func Load(path string) (*RuleFile, error) {
	data, err := safefile.ReadLimited(path, MaxRuleFileSize)
	switch {
	case errors.Is(err, safefile.ErrNotRegularFile):
		return nil, errors.New("rule file must be a regular file (not FIFO, device, or special file)")
	case errors.Is(err, safefile.ErrEmpty):
		return nil, errors.New("rule file is empty")
	case errors.Is(err, safefile.ErrTooLarge):
		return nil, fmt.Errorf("rule file too large (max %d bytes)", MaxRuleFileSize)
	case err != nil:
		return nil, fmt.Errorf("failed to read rule file: %w", safefile.SanitizePathError(err))
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a rule file from a byte slice.
func LoadBytes(data []byte) (*RuleFile, error) {
	if len(data) == 0 {
		return nil, errors.New("rule file is empty")
	}
	if len(data) > MaxRuleFileSize {
		return nil, fmt.Errorf("rule file too large: %d bytes (max %d)", len(data), MaxRuleFileSize)
	}

	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := rf.Validate(); err != nil {
		return nil, err
	}

	return &rf, nil
}

// Validate performs schema-level validation on the rule file.
// It checks for:
//   - Supported version number
//   - At least one rule, and no more than MaxRuleCount
//   - Required fields (id, kind, regex)
//   - Known kind and scope names
//   - Unique rule IDs
//   - Regex length limits
//
// Regexes are compiled later by Compile.
func (rf *RuleFile) Validate() error {
	if rf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", rf.Version, SupportedVersion),
		}
	}

	if len(rf.Rules) == 0 {
		return &ValidationError{
			Field:   "rules",
			Message: "at least one rule is required",
		}
	}
	if len(rf.Rules) > MaxRuleCount {
		return &ValidationError{
			Field:   "rules",
			Message: fmt.Sprintf("too many rules (%d), maximum allowed is %d", len(rf.Rules), MaxRuleCount),
		}
	}

	seenIDs := make(map[string]int, len(rf.Rules))

	for i, r := range rf.Rules {
		if r.ID == "" {
			return &RuleError{Index: i, Field: "id", Message: "id is required"}
		}
		if r.Kind == "" {
			return &RuleError{Index: i, ID: r.ID, Field: "kind", Message: "kind is required"}
		}
		if _, ok := event.ParseKind(r.Kind); !ok {
			return &RuleError{Index: i, ID: r.ID, Field: "kind", Message: fmt.Sprintf("unknown kind %q", r.Kind)}
		}
		if r.Scope != "" {
			if _, ok := parser.ParseScope(r.Scope); !ok {
				return &RuleError{Index: i, ID: r.ID, Field: "scope", Message: fmt.Sprintf("unknown scope %q", r.Scope)}
			}
		}
		if r.Regex == "" {
			return &RuleError{Index: i, ID: r.ID, Field: "regex", Message: "regex is required"}
		}

		if prev, exists := seenIDs[r.ID]; exists {
			return &RuleError{
				Index:   i,
				ID:      r.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at rule[%d])", prev),
			}
		}
		seenIDs[r.ID] = i

		if len(r.Regex) > MaxRegexLength {
			return &RuleError{
				Index:   i,
				ID:      r.ID,
				Field:   "regex",
				Message: fmt.Sprintf("regex too long: %d bytes (max %d)", len(r.Regex), MaxRegexLength),
			}
		}
	}

	return nil
}
