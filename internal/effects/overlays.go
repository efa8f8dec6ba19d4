package effects

import (
	"maps"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Default names of the shared text and image sources.
const (
	DefaultNotificationOverlay = "NotificationOverlay"
	DefaultNotificationText    = "NotificationText"
	DefaultKillstreakText      = "KillstreakText"
)

// defaultOverlays maps overlay keys to OBS source names. Keys are kind
// names, "build_"/"destroy_" plus the building for buildings, and the
// effect name for status effects.
var defaultOverlays = map[string]string{
	"kill":               "KillOverlay",
	"death":              "DeathOverlay",
	"suicide":            "SuicideOverlay",
	"capture":            "CaptureOverlay",
	"spawn":              "Spawned",
	"intel_pickup":       "PickedIntel",
	"intel_drop":         "DroppedIntel",
	"intel_carry":        "HasIntel",
	"intel_capture":      "FlagCaptured",
	"build_sentrygun":    "BuiltSentry",
	"build_minisentry":   "BuiltSentry",
	"build_dispenser":    "BuiltDispenser",
	"build_teleporter":   "BuiltTeleEntrance",
	"destroy_sentrygun":  "DestroyedSentry",
	"destroy_minisentry": "DestroyedSentry",
	"destroy_dispenser":  "DestroyedDispenser",
	"destroy_teleporter": "DestroyedTeleEntrance",
	"domination":         "Domination",
	"dominated":          "Dominated",
	"revenge":            "Revenge",
	"stunned":            "Stunned",
	"jarated":            "Jarated",
	"milked":             "Milked",
	"extinguished":       "Extinguished",
	"ignited":            "PlayerIgnited",
	"medic_uber":         "MedicUber",
	"medic_charge":       "MedicCharge",
	"spy_disguise":       "SpyDisguise",
	"spy_backstab":       "SpyBackstab",
	"engineer_teleport":  "EngiTeleport",
	"sniper_headshot":    "SniperHeadshot",
	"pyro_airblast":      "PyroAirblast",
	"demo_sticky_trap":   "DemoTrap",
	"heavy_eating":       "HeavyEating",
	"crit_boost":         "CritBoosted",
	"mini_crit_boost":    "MiniCritBoosted",
	"damage":             "Damage",
	"heal":               "Healed",
	"assist":             "Assist",
	"round_win":          "RoundWin",
	"round_stalemate":    "RoundStalemate",
	"match_win":          "MatchWin",
	"first_blood":        "FirstBlood",
}

// defaultClassSources maps display class names to their overlay sources.
var defaultClassSources = map[string]string{
	"Scout":       "ScoutOverlay",
	"Soldier":     "SoldierOverlay",
	"Pyro":        "PyroOverlay",
	"Demoman":     "DemomanOverlay",
	"Heavy":       "HeavyOverlay",
	"Engineer":    "EngineerOverlay",
	"Medic":       "MedicOverlay",
	"Sniper":      "SniperOverlay",
	"Spy":         "SpyOverlay",
	"Saxton Hale": "HaleOverlay",
}

// DefaultOverlays returns a copy of the built-in overlay table.
func DefaultOverlays() map[string]string {
	return maps.Clone(defaultOverlays)
}

// DefaultClassSources returns a copy of the built-in class overlay table.
func DefaultClassSources() map[string]string {
	return maps.Clone(defaultClassSources)
}

// OverlayKey returns the key under which the overlay for ev is looked up.
func OverlayKey(ev event.Event) string {
	switch ev.Kind {
	case event.Build:
		return "build_" + ev.Subject
	case event.Destroy:
		return "destroy_" + ev.Subject
	case event.StatusEffect:
		return ev.Subject
	default:
		return ev.Kind.String()
	}
}

// ClassMode selects how the class overlay is switched.
type ClassMode int

const (
	// ClassImages enables the selected class's scene item and disables the
	// others.
	ClassImages ClassMode = iota
	// ClassMedia unmutes the selected class's media input and mutes the
	// others.
	ClassMedia
)

func (m ClassMode) String() string {
	switch m {
	case ClassImages:
		return "images"
	case ClassMedia:
		return "media"
	default:
		return "unknown"
	}
}

// ParseClassMode parses "images" or "media".
func ParseClassMode(s string) (ClassMode, bool) {
	switch s {
	case "images", "":
		return ClassImages, true
	case "media":
		return ClassMedia, true
	default:
		return 0, false
	}
}
