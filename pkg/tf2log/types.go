package tf2log

import (
	"github.com/tf2obs/tf2obs-go/internal/parser"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Event is a classified log line.
type Event = event.Event

// Kind identifies the type of an event.
type Kind = event.Kind

// State is the classifier state for one watched player.
type State = event.State

// Rule is one entry of a classification rule table.
type Rule = parser.Rule

// Match is a rule match passed to Rule.Resolve.
type Match = parser.Match

// Scope says which side of a line must be the watched player.
type Scope = parser.Scope

// Scopes accepted by Rule.Scope.
const (
	ScopeActor  = parser.ScopeActor
	ScopeTarget = parser.ScopeTarget
	ScopeEither = parser.ScopeEither
	ScopeVersus = parser.ScopeVersus
	ScopeWorld  = parser.ScopeWorld
)

// Event kinds.
const (
	KindKill             = event.Kill
	KindDeath            = event.Death
	KindSuicide          = event.Suicide
	KindSpawn            = event.Spawn
	KindCapture          = event.Capture
	KindIntelPickup      = event.IntelPickup
	KindIntelDrop        = event.IntelDrop
	KindIntelCarry       = event.IntelCarry
	KindIntelCapture     = event.IntelCapture
	KindBuild            = event.Build
	KindDestroy          = event.Destroy
	KindDomination       = event.Domination
	KindDominated        = event.Dominated
	KindRevenge          = event.Revenge
	KindStatusEffect     = event.StatusEffect
	KindMedicCharge      = event.MedicCharge
	KindMedicUber        = event.MedicUber
	KindSpyDisguise      = event.SpyDisguise
	KindSpyBackstab      = event.SpyBackstab
	KindEngineerTeleport = event.EngineerTeleport
	KindSniperHeadshot   = event.SniperHeadshot
	KindPyroAirblast     = event.PyroAirblast
	KindDemoStickyTrap   = event.DemoStickyTrap
	KindHeavyEating      = event.HeavyEating
	KindCritBoost        = event.CritBoost
	KindMiniCritBoost    = event.MiniCritBoost
	KindDamage           = event.Damage
	KindHeal             = event.Heal
	KindAssist           = event.Assist
	KindRoundWin         = event.RoundWin
	KindRoundStalemate   = event.RoundStalemate
	KindMatchWin         = event.MatchWin
	KindFirstBlood       = event.FirstBlood
	KindTeamChange       = event.TeamChange
	KindClassChange      = event.ClassChange
	KindMapChange        = event.MapChange
)

// UnknownWeapon is the subject of kills and deaths with an unrecognised weapon.
const UnknownWeapon = event.UnknownWeapon

// ParseKind looks up a kind by its snake_case name.
func ParseKind(name string) (Kind, bool) {
	return event.ParseKind(name)
}

// Kinds returns every event kind.
func Kinds() []Kind {
	return event.Kinds()
}
