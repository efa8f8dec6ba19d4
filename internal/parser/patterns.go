package parser

import (
	"regexp"
	"strings"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Timestamp prefix written by con_timestamp and by dedicated servers:
// "10/12/2024 - 20:01:02: " or "L 10/12/2024 - 20:01:02: ".
const timestampLayout = "01/02/2006 - 15:04:05"

var timestampPattern = regexp.MustCompile(`^(?:L )?(\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}):\s*`)

// Placeholders accepted in rule expressions.
//
// A player token matches both the console form (Alice) and the log form
// ("Alice<3><[U:1:1]><Red>"); the <uid><steamid><team> suffix is not captured.
const (
	actorToken  = `"?(?P<actor>[^"]+?)(?:<[^>]*>)*"?`
	targetToken = `"?(?P<target>[^"]+?)(?:<[^>]*>)*"?`

	// tailToken ends a line: optional sentence punctuation, then either
	// nothing or a run of parenthesised properties.
	tailToken = `(?P<rest>(?:[.!]?\s+\(.*|[.!]))?\s*$`
)

var placeholders = strings.NewReplacer(
	"{actor}", actorToken,
	"{target}", targetToken,
	"{tail}", tailToken,
)

// Expand replaces the {actor}, {target} and {tail} placeholders in expr.
func Expand(expr string) string {
	return placeholders.Replace(expr)
}

// Compile expands placeholders and compiles expr case-insensitively.
func Compile(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + Expand(expr))
}

func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + Expand(expr))
}

var (
	critPattern   = regexp.MustCompile(`(?i)\((?:mini)?crit(?:\s+"[^"]*")?\)`)
	capperPattern = regexp.MustCompile(`(?i)\(player\d+ "([^"<]+)`)
	cpNamePattern = regexp.MustCompile(`(?i)\(cpname "([^"]*)"\)`)
)

const classNames = `scout|soldier|pyro|demoman|heavy(?:weapons)?|engineer|medic|sniper|spy|saxton hale`

// defaultRules is the built-in rule table. Order matters: the first rule whose
// pattern matches decides the outcome, so specific rules precede the generic
// "triggered" rule at the end.
var defaultRules = []Rule{
	{
		// Chat lines ("Name :  text") are consumed without an event so their
		// text never reaches the kill rules.
		ID:      "chat",
		Pattern: regexp.MustCompile(`^(?:\*DEAD\*\s*)?(?:\(TEAM\)\s*)?[^"]*? :  `),
		Resolve: func(Match) (event.Kind, string, bool) { return event.None, "", false },
	},
	{
		ID:      "suicide",
		Pattern: mustCompile(`^{actor} (?:suicided|committed suicide)(?: with "?(?P<subject>[\w'-]+)"?)?{tail}`),
		Kind:    event.Suicide,
		Scope:   ScopeActor,
	},
	{
		ID:      "kill",
		Pattern: mustCompile(`^{actor} killed {target} with "?(?P<subject>[\w'-]+)"?{tail}`),
		Kind:    event.Kill,
		Scope:   ScopeVersus,
	},
	{
		ID:      "kill-special",
		Pattern: mustCompile(`^{actor} (?:killed|telefragged|taunt-killed|exploded|sacrificed) {target}(?: with the assistance of [^.(]+?| while ÜberCharged| with "?(?P<subject>[\w'-]+)"?)?{tail}`),
		Kind:    event.Kill,
		Scope:   ScopeVersus,
	},
	{
		ID:      "kill-environment",
		Pattern: mustCompile(`^{actor} (?:pushed|knocked) {target} into [^.(]+?{tail}`),
		Kind:    event.Kill,
		Scope:   ScopeVersus,
	},
	{
		ID:      "kill-airblast",
		Pattern: mustCompile(`^{actor} airblasted {target} to their death{tail}`),
		Kind:    event.Kill,
		Scope:   ScopeVersus,
	},
	{
		ID:      "domination",
		Pattern: mustCompile(`^{actor} (?:is dominating|dominated|triggered "domination" against) {target}{tail}`),
		Kind:    event.Domination,
		Scope:   ScopeVersus,
	},
	{
		ID:      "revenge",
		Pattern: mustCompile(`^{actor} (?:got revenge on|triggered "revenge" against) {target}{tail}`),
		Kind:    event.Revenge,
		Scope:   ScopeActor,
	},
	{
		ID:      "backstab",
		Pattern: mustCompile(`^{actor} (?:backstabbed|triggered "backstab" against) {target}{tail}`),
		Kind:    event.SpyBackstab,
		Scope:   ScopeActor,
	},
	{
		ID:      "headshot",
		Pattern: mustCompile(`^{actor} (?:headshot|triggered "headshot" against) {target}{tail}`),
		Kind:    event.SniperHeadshot,
		Scope:   ScopeActor,
	},
	{
		ID:      "airblast",
		Pattern: mustCompile(`^{actor} (?:airblasted|triggered "airblast" against) {target}{tail}`),
		Kind:    event.PyroAirblast,
		Scope:   ScopeActor,
	},
	{
		ID:      "capture",
		Pattern: mustCompile(`^{actor} captured (?:control point|the point) "?(?P<subject>[^"]+?)"?{tail}`),
		Kind:    event.Capture,
		Scope:   ScopeActor,
	},
	{
		ID:      "capture-team",
		Pattern: mustCompile(`^Team "[^"]*" triggered "pointcaptured"(?P<rest>.*)$`),
		Kind:    event.Capture,
		Scope:   ScopeWorld,
		Resolve: resolveTeamCapture,
	},
	{
		ID:      "intel",
		Pattern: mustCompile(`^{actor} (?P<subject>picked up|dropped|captured|has) the intelligence{tail}`),
		Scope:   ScopeActor,
		Resolve: resolveIntel,
	},
	{
		ID:      "intel-flagevent",
		Pattern: mustCompile(`^{actor} triggered "flagevent" \(event "(?P<subject>[^"]*)"\)(?P<rest>.*)$`),
		Scope:   ScopeActor,
		Resolve: resolveIntel,
	},
	{
		ID:      "build",
		Pattern: mustCompile(`^{actor} (?:built object|triggered "player_builtobject" \(object) "?(?P<subject>\w+)"?(?P<rest>.*)$`),
		Scope:   ScopeActor,
		Resolve: resolveObject(event.Build),
	},
	{
		ID:      "destroy",
		Pattern: mustCompile(`^{actor} (?:destroyed object|triggered "killedobject" \(object) "?(?P<subject>\w+)"?(?P<rest>.*)$`),
		Scope:   ScopeActor,
		Resolve: resolveObject(event.Destroy),
	},
	{
		ID:      "ubercharge",
		Pattern: mustCompile(`^{actor} triggered "ubercharge_deployed"{tail}`),
		Kind:    event.MedicUber,
		Scope:   ScopeActor,
	},
	{
		ID:      "charge",
		Pattern: mustCompile(`^{actor} triggered "(?:charge_deployed|chargedeployed)"{tail}`),
		Kind:    event.MedicCharge,
		Scope:   ScopeActor,
	},
	{
		ID:      "crit-boost",
		Pattern: mustCompile(`^{actor} triggered "crit_boosted" against {target}{tail}`),
		Kind:    event.CritBoost,
		Scope:   ScopeActor,
	},
	{
		ID:      "mini-crit-boost",
		Pattern: mustCompile(`^{actor} triggered "mini_crit_boosted" against {target}{tail}`),
		Kind:    event.MiniCritBoost,
		Scope:   ScopeActor,
	},
	{
		ID:      "healed",
		Pattern: mustCompile(`^{actor} triggered "healed" against {target} \(healing "(?P<amount>[^"]*)"\)(?P<rest>.*)$`),
		Kind:    event.Heal,
		Scope:   ScopeActor,
	},
	{
		ID:      "damage",
		Pattern: mustCompile(`^{actor} triggered "damage" against {target} \(damage "(?P<amount>[^"]*)"\)(?P<rest>.*)$`),
		Kind:    event.Damage,
		Scope:   ScopeActor,
	},
	{
		ID:      "assist",
		Pattern: mustCompile(`^{actor} (?:triggered "kill assist" against|assisted killing) {target}{tail}`),
		Kind:    event.Assist,
		Scope:   ScopeActor,
	},
	{
		ID:      "disguise",
		Pattern: mustCompile(`^{actor} triggered "disguise_complete"{tail}`),
		Kind:    event.SpyDisguise,
		Scope:   ScopeActor,
	},
	{
		ID:      "teleported",
		Pattern: mustCompile(`^{actor} triggered "(?:player_)?teleported"(?: against {target})?{tail}`),
		Kind:    event.EngineerTeleport,
		Scope:   ScopeActor,
	},
	{
		ID:      "sticky-trap",
		Pattern: mustCompile(`^{actor}(?:'s)? sticky trap triggered{tail}`),
		Kind:    event.DemoStickyTrap,
		Scope:   ScopeActor,
	},
	{
		ID:      "eating",
		Pattern: mustCompile(`^{actor} triggered "player_is_eating"{tail}`),
		Kind:    event.HeavyEating,
		Scope:   ScopeActor,
	},
	{
		ID:      "status",
		Pattern: mustCompile(`^{actor} triggered "player_(?P<subject>stunned|jarated|milked|extinguished|ignited)"(?: against {target})?{tail}`),
		Kind:    event.StatusEffect,
		Scope:   ScopeEither,
	},
	{
		ID:      "spawn",
		Pattern: mustCompile(`^{actor} (?:has )?spawned as (?:a )?"?(?P<subject>` + classNames + `)"?{tail}`),
		Scope:   ScopeActor,
		Resolve: resolveClass(event.Spawn),
	},
	{
		ID:      "class-change",
		Pattern: mustCompile(`^{actor} changed role to "?(?P<subject>` + classNames + `)"?{tail}`),
		Scope:   ScopeActor,
		Resolve: resolveClass(event.ClassChange),
	},
	{
		ID:      "team-change",
		Pattern: mustCompile(`^{actor} joined team "?(?P<subject>red|blue?)"?{tail}`),
		Kind:    event.TeamChange,
		Scope:   ScopeActor,
		Resolve: resolveTeam,
	},
	{
		ID:      "round-win",
		Pattern: mustCompile(`^World triggered "Round_Win"(?: \(winner "(?P<subject>[^"]*)"\))?(?P<rest>.*)$`),
		Kind:    event.RoundWin,
		Scope:   ScopeWorld,
	},
	{
		ID:      "round-stalemate",
		Pattern: mustCompile(`^World triggered "Round_Stalemate"(?P<rest>.*)$`),
		Kind:    event.RoundStalemate,
		Scope:   ScopeWorld,
	},
	{
		ID:      "game-over",
		Pattern: mustCompile(`^World triggered "Game_Over"(?: reason "(?P<subject>[^"]*)")?(?P<rest>.*)$`),
		Kind:    event.MatchWin,
		Scope:   ScopeWorld,
	},
	{
		ID:      "first-blood",
		Pattern: mustCompile(`^{actor} drew first blood{tail}`),
		Kind:    event.FirstBlood,
		Scope:   ScopeWorld,
	},
	{
		ID:      "map-change",
		Pattern: mustCompile(`^(?:Loading|Started) map "(?P<subject>[^"]+)"(?P<rest>.*)$`),
		Kind:    event.MapChange,
		Scope:   ScopeWorld,
	},
	{
		ID:      "triggered",
		Pattern: mustCompile(`^{actor} triggered "(?P<subject>[^"]+)"(?: against {target})?{tail}`),
		Scope:   ScopeActor,
		Resolve: resolveTrigger,
	},
}

// triggerAliases maps trigger names emitted by server plugins to kinds.
// Anything else seen by the generic rule yields no event.
var triggerAliases = map[string]event.Kind{
	"medic_uber":                    event.MedicUber,
	"medic_charge_deployed":         event.MedicCharge,
	"spy_disguise_complete":         event.SpyDisguise,
	"spy_backstab":                  event.SpyBackstab,
	"engineer_teleported":           event.EngineerTeleport,
	"sniper_headshot":               event.SniperHeadshot,
	"pyro_airblast":                 event.PyroAirblast,
	"demoman_sticky_trap_triggered": event.DemoStickyTrap,
	"heavy_eating":                  event.HeavyEating,
}
