// Package pattern loads extra classification rules from YAML files.
//
// Rules from a file are tried before the built-in table, so they can add
// lines the built-in rules miss (server plugin triggers, community mods) or
// override how a specific line is classified.
package pattern

// RuleFile represents the structure of a YAML rule file.
//
// Example YAML file:
//
//	version: 1
//	rules:
//	  - id: humiliation
//	    kind: kill
//	    scope: versus
//	    regex: '^{actor} humiliated {target}{tail}'
//	  - id: sapper
//	    kind: destroy
//	    regex: '^{actor} triggered "object_sapped" \(object "(?P<subject>\w+)"\)'
//
// Regexes are matched case-insensitively. The placeholders {actor},
// {target} and {tail} expand to the same player and line-ending tokens the
// built-in rules use.
type RuleFile struct {
	// Version is the rule file format version. Currently only version 1 is supported.
	Version int `yaml:"version"`

	// Rules is the ordered list of rule definitions.
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is a single rule definition.
type RuleSpec struct {
	// ID is a unique identifier for this rule within the file.
	ID string `yaml:"id"`

	// Kind is the snake_case event kind name, e.g. "kill" or "intel_pickup".
	Kind string `yaml:"kind"`

	// Scope is one of actor, target, either, versus or world.
	// Empty means actor.
	Scope string `yaml:"scope,omitempty"`

	// Regex may use the named groups actor, target, subject, amount and rest.
	Regex string `yaml:"regex"`
}
