// Package parser classifies Team Fortress 2 console log lines.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Scope says which side of a matched line must be the watched player for
// the line to produce an event.
type Scope int

const (
	// ScopeActor requires the watched player to be the actor.
	ScopeActor Scope = iota
	// ScopeTarget requires the watched player to be the target.
	ScopeTarget
	// ScopeEither accepts the watched player on either side.
	ScopeEither
	// ScopeVersus accepts either side; when the watched player is the target
	// the kind is flipped to its counterpart (kill becomes death).
	ScopeVersus
	// ScopeWorld reports the line regardless of who is involved.
	ScopeWorld
)

var scopeNames = map[string]Scope{
	"actor":  ScopeActor,
	"target": ScopeTarget,
	"either": ScopeEither,
	"versus": ScopeVersus,
	"world":  ScopeWorld,
}

// String returns the lower-case scope name.
func (s Scope) String() string {
	for name, v := range scopeNames {
		if v == s {
			return name
		}
	}
	return "unknown"
}

// ParseScope looks up a scope by name.
func ParseScope(name string) (Scope, bool) {
	s, ok := scopeNames[strings.ToLower(name)]
	return s, ok
}

// Rule is one entry of the ordered rule table.
//
// Pattern may use the named groups actor, target, subject, amount and rest.
// Resolve, when set, decides the kind and subject from the match; returning
// false suppresses the event while still consuming the line.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
	Kind    event.Kind
	Scope   Scope
	Resolve func(m Match) (event.Kind, string, bool)
}

// Match is a successful rule match against one line.
type Match struct {
	Player string

	re     *regexp.Regexp
	groups []string
}

// Group returns the text captured by the named group, or "".
func (m Match) Group(name string) string {
	i := m.re.SubexpIndex(name)
	if i < 0 || i >= len(m.groups) {
		return ""
	}
	return strings.TrimSpace(m.groups[i])
}

// IsPlayer reports whether name is the watched player.
func (m Match) IsPlayer(name string) bool {
	return isPlayer(name, m.Player)
}

// DefaultRules returns the built-in rule table. The returned slice is shared
// and must not be modified.
func DefaultRules() []Rule {
	return defaultRules
}

// Classify classifies a single line against rules, updating st.
//
// Returns false when no rule matched or the matched rule does not concern
// the watched player. An unmatched line leaves st untouched.
func Classify(line string, st *event.State, rules []Rule) (event.Event, bool) {
	if st == nil {
		st = &event.State{}
	}
	line = strings.TrimRight(line, "\r\n")
	ts, body := splitTimestamp(line)

	for i := range rules {
		r := &rules[i]
		groups := r.Pattern.FindStringSubmatch(body)
		if groups == nil {
			continue
		}
		ev, ok := settle(r, Match{Player: st.Player, re: r.Pattern, groups: groups}, st)
		if !ok {
			return event.Event{}, false
		}
		ev.Timestamp = ts
		ev.RawLine = line
		return ev, true
	}
	return event.Event{}, false
}

// settle turns a match into an event and applies its effect on st.
func settle(r *Rule, m Match, st *event.State) (event.Event, bool) {
	actor := m.Group("actor")
	target := m.Group("target")

	kind := r.Kind
	subject := m.Group("subject")
	if r.Resolve != nil {
		var ok bool
		kind, subject, ok = r.Resolve(m)
		if !ok {
			return event.Event{}, false
		}
	}

	switch r.Scope {
	case ScopeActor:
		if !m.IsPlayer(actor) {
			return event.Event{}, false
		}
	case ScopeTarget:
		if !m.IsPlayer(target) {
			return event.Event{}, false
		}
	case ScopeEither:
		if !m.IsPlayer(actor) && !m.IsPlayer(target) {
			return event.Event{}, false
		}
	case ScopeVersus:
		switch {
		case m.IsPlayer(actor):
		case m.IsPlayer(target):
			kind = counterpart(kind)
		default:
			return event.Event{}, false
		}
	case ScopeWorld:
	}

	if kind == event.Kill && target != "" && strings.EqualFold(actor, target) {
		kind = event.Suicide
	}

	switch kind {
	case event.Kill, event.Death:
		subject = NormalizeWeapon(subject)
	case event.Suicide:
		if subject != "" {
			subject = NormalizeWeapon(subject)
		}
	case event.Dominated, event.FirstBlood:
		if subject == "" {
			subject = actor
		}
	default:
		if subject == "" {
			subject = target
		}
	}

	ev := event.Event{
		Kind:    kind,
		Subject: subject,
		Actor:   actor,
		Target:  target,
		Crit:    critPattern.MatchString(m.Group("rest")),
	}

	// Numeric payloads are checked before touching state so a bad amount
	// leaves the session as it was.
	var amount int
	hasAmount := false
	if raw := m.Group("amount"); raw != "" || kind == event.Damage || kind == event.Heal {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return event.Event{}, false
		}
		amount, hasAmount = n, true
	}

	switch kind {
	case event.Kill:
		st.Killstreak++
		ev.Magnitude = intPtr(st.Killstreak)
	case event.Spawn, event.ClassChange:
		st.Killstreak = 0
		st.Class = subject
		ev.Magnitude = intPtr(0)
	case event.Death, event.Suicide, event.Dominated,
		event.TeamChange, event.RoundWin, event.RoundStalemate, event.MatchWin, event.MapChange:
		st.Killstreak = 0
		ev.Magnitude = intPtr(0)
	default:
		if hasAmount {
			ev.Magnitude = intPtr(amount)
		}
	}
	return ev, true
}

// counterpart maps a kind seen from the actor's side to the kind seen from
// the target's side.
func counterpart(k event.Kind) event.Kind {
	switch k {
	case event.Kill:
		return event.Death
	case event.Domination:
		return event.Dominated
	default:
		return k
	}
}

func isPlayer(name, player string) bool {
	return player != "" && strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(player))
}

func splitTimestamp(line string) (time.Time, string) {
	loc := timestampPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return time.Time{}, line
	}
	ts, err := time.ParseInLocation(timestampLayout, line[loc[2]:loc[3]], time.Local)
	if err != nil {
		return time.Time{}, line[loc[1]:]
	}
	return ts, line[loc[1]:]
}

func intPtr(n int) *int { return &n }

// resolveIntel maps the intelligence action to its kind.
func resolveIntel(m Match) (event.Kind, string, bool) {
	action := strings.ToLower(m.Group("subject"))
	switch action {
	case "picked up":
		return event.IntelPickup, "intelligence", true
	case "dropped":
		return event.IntelDrop, "intelligence", true
	case "captured":
		return event.IntelCapture, "intelligence", true
	case "has":
		return event.IntelCarry, "intelligence", true
	default:
		return event.None, "", false
	}
}

// resolveObject returns a resolver that strips the OBJ_ prefix from
// building names.
func resolveObject(kind event.Kind) func(Match) (event.Kind, string, bool) {
	return func(m Match) (event.Kind, string, bool) {
		obj := strings.TrimPrefix(strings.ToLower(m.Group("subject")), "obj_")
		if obj == "" {
			return event.None, "", false
		}
		return kind, obj, true
	}
}

var classAliases = map[string]string{
	"heavyweapons": "heavy",
}

// resolveClass returns a resolver that normalises class names to their
// display form ("Heavy").
func resolveClass(kind event.Kind) func(Match) (event.Kind, string, bool) {
	return func(m Match) (event.Kind, string, bool) {
		name := strings.ToLower(m.Group("subject"))
		if alias, ok := classAliases[name]; ok {
			name = alias
		}
		return kind, cases.Title(language.English).String(name), true
	}
}

func resolveTeam(m Match) (event.Kind, string, bool) {
	team := strings.ToUpper(m.Group("subject"))
	if team == "BLUE" {
		team = "BLU"
	}
	return event.TeamChange, team, true
}

// resolveTeamCapture handles the server form where the cappers are listed
// as (player1 "Name<..>") properties.
func resolveTeamCapture(m Match) (event.Kind, string, bool) {
	rest := m.Group("rest")
	for _, c := range capperPattern.FindAllStringSubmatch(rest, -1) {
		if m.IsPlayer(c[1]) {
			point := ""
			if cp := cpNamePattern.FindStringSubmatch(rest); cp != nil {
				point = cp[1]
			}
			return event.Capture, point, true
		}
	}
	return event.None, "", false
}

func resolveTrigger(m Match) (event.Kind, string, bool) {
	kind, ok := triggerAliases[strings.ToLower(m.Group("subject"))]
	if !ok {
		return event.None, "", false
	}
	return kind, m.Group("target"), true
}
