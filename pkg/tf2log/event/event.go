// Package event defines the domain events produced from Team Fortress 2 console logs.
package event

import (
	"fmt"
	"time"
)

// Kind identifies the type of a classified log line.
// The set is closed; consumers are expected to switch over it exhaustively.
type Kind int

const (
	None Kind = iota
	Kill
	Death
	Suicide
	Spawn
	Capture
	IntelPickup
	IntelDrop
	IntelCarry
	IntelCapture
	Build
	Destroy
	Domination
	Dominated
	Revenge
	StatusEffect
	MedicCharge
	MedicUber
	SpyDisguise
	SpyBackstab
	EngineerTeleport
	SniperHeadshot
	PyroAirblast
	DemoStickyTrap
	HeavyEating
	CritBoost
	MiniCritBoost
	Damage
	Heal
	Assist
	RoundWin
	RoundStalemate
	MatchWin
	FirstBlood
	TeamChange
	ClassChange
	MapChange

	kindCount
)

var kindNames = [kindCount]string{
	None:             "none",
	Kill:             "kill",
	Death:            "death",
	Suicide:          "suicide",
	Spawn:            "spawn",
	Capture:          "capture",
	IntelPickup:      "intel_pickup",
	IntelDrop:        "intel_drop",
	IntelCarry:       "intel_carry",
	IntelCapture:     "intel_capture",
	Build:            "build",
	Destroy:          "destroy",
	Domination:       "domination",
	Dominated:        "dominated",
	Revenge:          "revenge",
	StatusEffect:     "status_effect",
	MedicCharge:      "medic_charge",
	MedicUber:        "medic_uber",
	SpyDisguise:      "spy_disguise",
	SpyBackstab:      "spy_backstab",
	EngineerTeleport: "engineer_teleport",
	SniperHeadshot:   "sniper_headshot",
	PyroAirblast:     "pyro_airblast",
	DemoStickyTrap:   "demo_sticky_trap",
	HeavyEating:      "heavy_eating",
	CritBoost:        "crit_boost",
	MiniCritBoost:    "mini_crit_boost",
	Damage:           "damage",
	Heal:             "heal",
	Assist:           "assist",
	RoundWin:         "round_win",
	RoundStalemate:   "round_stalemate",
	MatchWin:         "match_win",
	FirstBlood:       "first_blood",
	TeamChange:       "team_change",
	ClassChange:      "class_change",
	MapChange:        "map_change",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind other than None.
func (k Kind) Valid() bool {
	return k > None && k < kindCount
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := None + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind looks up a kind by its snake_case name.
func ParseKind(name string) (Kind, bool) {
	for k := None + 1; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return None, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown event kind %q", string(b))
	}
	*k = parsed
	return nil
}

// UnknownWeapon replaces kill and death weapons that are not in the known set.
const UnknownWeapon = "unknown weapon"

// Event is a single classified log line.
type Event struct {
	Kind Kind `json:"kind"`

	// Subject is kind dependent: weapon, victim, point, class, map or effect name.
	Subject string `json:"subject,omitempty"`

	// Magnitude carries the killstreak for streak-affecting kinds and the
	// amount for damage and heal events.
	Magnitude *int `json:"magnitude,omitempty"`

	Actor     string    `json:"actor,omitempty"`
	Target    string    `json:"target,omitempty"`
	Crit      bool      `json:"crit,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	RawLine   string    `json:"raw_line,omitempty"`
}

// Value returns the magnitude, or 0 when the event carries none.
func (e Event) Value() int {
	if e.Magnitude == nil {
		return 0
	}
	return *e.Magnitude
}

// State is the per-session classifier state for one watched player.
type State struct {
	Player     string
	Killstreak int
	Class      string
}

// NewState returns a fresh state for the given player.
func NewState(player string) *State {
	return &State{Player: player}
}
