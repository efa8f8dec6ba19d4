package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, ev tf2log.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as JSON Lines format.
func OutputJSON(ev tf2log.Event, out io.Writer) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable format:
//
//	[20:01:02] kill scattergun (3) actor=Alice target=Bob crit
//
// Lines without a console timestamp show --:--:--.
func OutputPretty(ev tf2log.Event, out io.Writer) error {
	ts := "--:--:--"
	if !ev.Timestamp.IsZero() {
		ts = ev.Timestamp.Format("15:04:05")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", ts, ev.Kind)
	if ev.Subject != "" {
		sb.WriteString(" " + quoteIfNeeded(ev.Subject))
	}
	if ev.Magnitude != nil {
		fmt.Fprintf(&sb, " (%d)", *ev.Magnitude)
	}
	if ev.Actor != "" {
		sb.WriteString(" actor=" + quoteIfNeeded(ev.Actor))
	}
	if ev.Target != "" {
		sb.WriteString(" target=" + quoteIfNeeded(ev.Target))
	}
	if ev.Crit {
		sb.WriteString(" crit")
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(out, sb.String())
	return err
}

// quoteIfNeeded quotes a value if it contains special characters or control characters.
// Returns the value unchanged if no quoting is needed.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
