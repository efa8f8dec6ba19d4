package tf2log

import "context"

// ParseResult represents the result of parsing a log line.
type ParseResult struct {
	// Events contains the classified events. The built-in classifier emits
	// at most one per line.
	Events []Event

	// Matched indicates whether the parser produced anything for the line.
	Matched bool
}

// Parser is the interface for log line parsers.
// *Classifier is the built-in implementation.
type Parser interface {
	// ParseLine parses a single log line.
	// Returns ParseResult with Matched=true if the line produced events.
	// Returns error only for unexpected failures (not for unrecognized lines).
	ParseLine(ctx context.Context, line string) (ParseResult, error)
}

// ParserFunc is an adapter to allow ordinary functions to be used as Parsers.
type ParserFunc func(ctx context.Context, line string) (ParseResult, error)

// ParseLine implements the Parser interface.
func (f ParserFunc) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	return f(ctx, line)
}
