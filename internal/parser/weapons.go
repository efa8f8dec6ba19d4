package parser

import (
	"strings"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

var knownWeapons = makeSet(
	// Scout
	"scattergun", "pistol_scout", "bat", "force_a_nature", "bonk", "sandman", "flying_guillotine", "wrap_assassin",
	"soda_popper", "shortstop", "baby_face_blaster", "back_scatter", "holy_mackerel", "candy_cane", "atomizer",
	// Soldier
	"tf_projectile_rocket", "rocketlauncher", "rocketlauncher_directhit", "shotgun_soldier", "shovel", "buff_banner",
	"gunboats", "battalion_backup", "concheror", "mantreads", "market_gardener", "disciplinary_action",
	"blackbox", "liberty_launcher", "cow_mangler", "airstrike", "quake_rl", "equalizer", "escape_plan",
	// Pyro
	"flamethrower", "flame_thrower", "shotgun_pyro", "fireaxe", "degreaser", "backburner", "flaregun", "detonator",
	"reserve_shooter", "powerjack", "axtinguisher", "homewrecker", "phlogistinator", "scorch_shot", "dragons_fury",
	"gas_blast", "deflect_rocket", "deflect_promode", "deflect_flare", "deflect_arrow",
	// Demoman
	"tf_projectile_pipe", "tf_projectile_pipe_remote", "bottle", "grenade_launcher", "loch_n_load", "chargin_targe",
	"splendid_screen", "stickybomb_launcher", "scottish_resistance", "eyelander", "ullapool_caber", "iron_bomber",
	"loose_cannon", "persian_persuader", "claidheamohmor", "sword",
	// Heavy
	"minigun", "shotgun_hwg", "fists", "natascha", "sandvich", "dalokohs_bar", "buffalo_steak_sandvich",
	"holiday_punch", "eviction_notice", "brass_beast", "tomislav", "gloves", "steel_fists", "warrior_spirit",
	// Engineer
	"shotgun_primary", "pistol", "wrench", "frontier_justice", "wrangler", "short_circuit", "widowmaker", "pomson",
	"eureka_effect", "gunslinger", "robot_arm", "robot_arm_blender_kill", "robot_arm_combo_kill", "rescue_ranger",
	"obj_sentrygun", "obj_sentrygun2", "obj_sentrygun3", "obj_minisentry", "obj_dispenser", "obj_teleporter",
	// Medic
	"syringegun_medic", "medigun", "bonesaw", "crusaders_crossbow", "blutsauger", "kritzkrieg", "quick_fix",
	"vaccinator", "ubersaw", "vita_saw", "amputator", "solemn_vow",
	// Sniper
	"sniperrifle", "smg", "club", "huntsman", "compound_bow", "tf_projectile_arrow", "jarate", "sydney_sleeper",
	"bazaar_bargain", "machina", "shahanshah", "bushwacka", "the_classic", "awper_hand", "hitman_heatmaker",
	"long_heatmaker", "kukri", "tribalkukri",
	// Spy
	"revolver", "knife", "invis", "ambassador", "letranger", "enforcer", "diamondback", "your_eternal_reward",
	"conniver's_kunai", "big_earner", "spy_cicle", "eternal_reward", "kunai", "black_rose",
	// Shared
	"shotgun", "panic_attack", "family_business", "frying_pan", "saxxy", "golden_frying_pan", "passtime_gun",
	"grappling_hook", "crossing_guard",
	// Special kill types
	"world", "trigger_hurt", "environmental", "saw_kill", "pumpkin_bomb", "tf_pumpkin_bomb", "goomba", "backstab",
	"headshot", "telefrag", "tauntkill", "bleed_kill", "player", "skull",
	"spellbook_fireball", "spellbook_lightning", "spellbook_teleport", "spellbook_ball_o_bats", "spellbook_meteor",
	"spellbook_mirv", "robot_shotgun",
)

func makeSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// NormalizeWeapon lower-cases a weapon log name and returns event.UnknownWeapon
// when it is not in the known set.
func NormalizeWeapon(name string) string {
	w := strings.ToLower(strings.TrimSpace(name))
	if !KnownWeapon(w) {
		return event.UnknownWeapon
	}
	return w
}

// KnownWeapon reports whether name is in the known weapon set.
func KnownWeapon(name string) bool {
	_, ok := knownWeapons[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
