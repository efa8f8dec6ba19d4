package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

const (
	alice = `"Alice<3><[U:1:1001]><Red>"`
	bob   = `"Bob<4><[U:1:1002]><Blue>"`
	carol = `"Carol<5><[U:1:1003]><Red>"`
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantKind    event.Kind
		wantSubject string
		wantMag     *int
		wantCrit    bool
	}{
		// Kills and deaths
		{
			name:        "console kill",
			input:       "Alice killed Bob with scattergun.",
			wantKind:    event.Kill,
			wantSubject: "scattergun",
			wantMag:     intPtr(1),
		},
		{
			name:        "console crit kill",
			input:       "Alice killed Bob with scattergun. (crit)",
			wantKind:    event.Kill,
			wantSubject: "scattergun",
			wantMag:     intPtr(1),
			wantCrit:    true,
		},
		{
			name:        "server kill with properties",
			input:       `L 10/12/2024 - 20:01:02: ` + alice + ` killed ` + bob + ` with "scattergun" (attacker_position "1 2 3") (victim_position "4 5 6")`,
			wantKind:    event.Kill,
			wantSubject: "scattergun",
			wantMag:     intPtr(1),
		},
		{
			name:        "unknown weapon normalised",
			input:       "Alice killed Bob with mystery_gun.",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "uppercase line",
			input:       "ALICE KILLED BOB WITH SCATTERGUN.",
			wantKind:    event.Kill,
			wantSubject: "scattergun",
			wantMag:     intPtr(1),
		},
		{
			name:        "console death",
			input:       "Bob killed Alice with rocketlauncher.",
			wantKind:    event.Death,
			wantSubject: "rocketlauncher",
			wantMag:     intPtr(0),
		},
		{
			name:     "console suicide",
			input:    "Alice suicided.",
			wantKind: event.Suicide,
			wantMag:  intPtr(0),
		},
		{
			name:        "server suicide",
			input:       alice + ` committed suicide with "world" (attacker_position "1 2 3")`,
			wantKind:    event.Suicide,
			wantSubject: "world",
			wantMag:     intPtr(0),
		},
		{
			name:        "self kill is suicide",
			input:       "Alice killed Alice with tf_projectile_rocket.",
			wantKind:    event.Suicide,
			wantSubject: "tf_projectile_rocket",
			wantMag:     intPtr(0),
		},
		{
			name:        "kill without weapon",
			input:       "Alice killed Bob.",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "telefrag",
			input:       "Alice telefragged Bob",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "taunt kill with weapon",
			input:       alice + ` taunt-killed ` + bob + ` with "fists"`,
			wantKind:    event.Kill,
			wantSubject: "fists",
			wantMag:     intPtr(1),
		},
		{
			name:        "kill while ubercharged",
			input:       "Alice killed Bob while ÜberCharged",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "airblasted to death",
			input:       "Alice airblasted Bob to their death.",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "plain airblast stays an airblast",
			input:       "Alice airblasted Bob",
			wantKind:    event.PyroAirblast,
			wantSubject: "Bob",
		},
		{
			name:        "knocked into the air",
			input:       "Alice knocked Bob into the air and they exploded upon landing",
			wantKind:    event.Kill,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(1),
		},
		{
			name:        "telefragged",
			input:       "Bob telefragged Alice",
			wantKind:    event.Death,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(0),
		},
		{
			name:        "death with assistance",
			input:       "Bob killed Alice with the assistance of Carol",
			wantKind:    event.Death,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(0),
		},
		{
			name:        "pushed into a pit",
			input:       "Bob pushed Alice into the pit.",
			wantKind:    event.Death,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(0),
		},
		{
			name:        "exploded",
			input:       bob + ` exploded ` + alice,
			wantKind:    event.Death,
			wantSubject: event.UnknownWeapon,
			wantMag:     intPtr(0),
		},

		// Specific triggers
		{
			name:        "backstab",
			input:       alice + ` triggered "backstab" against ` + bob,
			wantKind:    event.SpyBackstab,
			wantSubject: "Bob",
		},
		{
			name:        "domination",
			input:       "Alice is dominating Bob.",
			wantKind:    event.Domination,
			wantSubject: "Bob",
		},
		{
			name:        "dominated",
			input:       bob + ` triggered "domination" against ` + alice + ` (assist "0")`,
			wantKind:    event.Dominated,
			wantSubject: "Bob",
			wantMag:     intPtr(0),
		},
		{
			name:        "revenge",
			input:       "Alice got revenge on Bob.",
			wantKind:    event.Revenge,
			wantSubject: "Bob",
		},
		{
			name:        "damage",
			input:       alice + ` triggered "damage" against ` + bob + ` (damage "54") (weapon "scattergun")`,
			wantKind:    event.Damage,
			wantSubject: "Bob",
			wantMag:     intPtr(54),
		},
		{
			name:        "healed",
			input:       alice + ` triggered "healed" against ` + carol + ` (healing "120")`,
			wantKind:    event.Heal,
			wantSubject: "Carol",
			wantMag:     intPtr(120),
		},
		{
			name:        "assist",
			input:       alice + ` triggered "kill assist" against ` + bob + ` (assister_position "1 2 3")`,
			wantKind:    event.Assist,
			wantSubject: "Bob",
		},
		{
			name:        "built sentry",
			input:       alice + ` triggered "player_builtobject" (object "OBJ_SENTRYGUN") (position "1 2 3")`,
			wantKind:    event.Build,
			wantSubject: "sentrygun",
		},
		{
			name:        "console built dispenser",
			input:       "Alice built object OBJ_DISPENSER",
			wantKind:    event.Build,
			wantSubject: "dispenser",
		},
		{
			name:        "destroyed object",
			input:       alice + ` triggered "killedobject" (object "OBJ_TELEPORTER") (weapon "wrench") (objectowner ` + bob + `)`,
			wantKind:    event.Destroy,
			wantSubject: "teleporter",
		},
		{
			name:        "intel pickup",
			input:       "Alice picked up the intelligence!",
			wantKind:    event.IntelPickup,
			wantSubject: "intelligence",
		},
		{
			name:        "intel carry",
			input:       "Alice has the intelligence!",
			wantKind:    event.IntelCarry,
			wantSubject: "intelligence",
		},
		{
			name:        "intel captured",
			input:       alice + ` triggered "flagevent" (event "captured") (position "1 2 3")`,
			wantKind:    event.IntelCapture,
			wantSubject: "intelligence",
		},
		{
			name:        "console capture",
			input:       "Alice captured control point Granary Last",
			wantKind:    event.Capture,
			wantSubject: "Granary Last",
		},
		{
			name:        "team capture lists player",
			input:       `Team "Red" triggered "pointcaptured" (cp "0") (cpname "#Badlands_cap_cp1") (numcappers "2") (player1 ` + carol + `) (position1 "1 2 3") (player2 ` + alice + `) (position2 "4 5 6")`,
			wantKind:    event.Capture,
			wantSubject: "#Badlands_cap_cp1",
		},
		{
			name:     "ubercharge",
			input:    alice + ` triggered "ubercharge_deployed"`,
			wantKind: event.MedicUber,
		},
		{
			name:     "charge deployed",
			input:    alice + ` triggered "chargedeployed" (medigun "kritzkrieg")`,
			wantKind: event.MedicCharge,
		},
		{
			name:        "crit boosted",
			input:       alice + ` triggered "crit_boosted" against ` + bob,
			wantKind:    event.CritBoost,
			wantSubject: "Bob",
		},
		{
			name:        "mini crit boosted",
			input:       alice + ` triggered "mini_crit_boosted" against ` + bob,
			wantKind:    event.MiniCritBoost,
			wantSubject: "Bob",
		},
		{
			name:     "disguise",
			input:    alice + ` triggered "disguise_complete"`,
			wantKind: event.SpyDisguise,
		},
		{
			name:     "teleported",
			input:       alice + ` triggered "player_teleported" against ` + carol,
			wantKind:    event.EngineerTeleport,
			wantSubject: "Carol",
		},
		{
			name:     "sticky trap",
			input:    "Alice's sticky trap triggered",
			wantKind: event.DemoStickyTrap,
		},
		{
			name:     "eating",
			input:    alice + ` triggered "player_is_eating"`,
			wantKind: event.HeavyEating,
		},
		{
			name:        "jarated as target",
			input:       bob + ` triggered "player_jarated" against ` + alice,
			wantKind:    event.StatusEffect,
			wantSubject: "jarated",
		},
		{
			name:        "plugin trigger alias",
			input:       alice + ` triggered "sniper_headshot" against ` + bob,
			wantKind:    event.SniperHeadshot,
			wantSubject: "Bob",
		},

		// Session changes
		{
			name:        "console spawn",
			input:       `Alice has spawned as a "Soldier"`,
			wantKind:    event.Spawn,
			wantSubject: "Soldier",
			wantMag:     intPtr(0),
		},
		{
			name:        "server spawn heavyweapons",
			input:       alice + ` spawned as "heavyweapons"`,
			wantKind:    event.Spawn,
			wantSubject: "Heavy",
			wantMag:     intPtr(0),
		},
		{
			name:        "class change",
			input:       alice + ` changed role to "sniper"`,
			wantKind:    event.ClassChange,
			wantSubject: "Sniper",
			wantMag:     intPtr(0),
		},
		{
			name:        "team change",
			input:       alice + ` joined team "Blue"`,
			wantKind:    event.TeamChange,
			wantSubject: "BLU",
			wantMag:     intPtr(0),
		},

		// World scope
		{
			name:        "round win",
			input:       `World triggered "Round_Win" (winner "Red")`,
			wantKind:    event.RoundWin,
			wantSubject: "Red",
			wantMag:     intPtr(0),
		},
		{
			name:     "round stalemate",
			input:    `World triggered "Round_Stalemate"`,
			wantKind: event.RoundStalemate,
			wantMag:  intPtr(0),
		},
		{
			name:        "game over",
			input:       `World triggered "Game_Over" reason "Reached Win Limit"`,
			wantKind:    event.MatchWin,
			wantSubject: "Reached Win Limit",
			wantMag:     intPtr(0),
		},
		{
			name:        "first blood by someone else",
			input:       "Bob drew first blood!",
			wantKind:    event.FirstBlood,
			wantSubject: "Bob",
		},
		{
			name:        "map change",
			input:       `Loading map "cp_badlands"`,
			wantKind:    event.MapChange,
			wantSubject: "cp_badlands",
			wantMag:     intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := event.NewState("Alice")
			got, ok := Classify(tt.input, st, DefaultRules())
			require.True(t, ok, "expected an event for %q", tt.input)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantSubject, got.Subject)
			assert.Equal(t, tt.wantMag, got.Magnitude)
			assert.Equal(t, tt.wantCrit, got.Crit)
		})
	}
}

func TestClassify_NoEvent(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"random text", "some random console output"},
		{"connect line", "Connected to 192.168.1.10:27015"},
		{"chat line", "Alice :  gg killed it"},
		{"chat naming the player", "*DEAD* Bob :  I killed Alice"},
		{"push between others", "Bob pushed Carol into the pit."},
		{"kill between others", "Bob killed Carol with scattergun."},
		{"backstab by others", bob + ` triggered "backstab" against ` + carol},
		{"damage not numeric", alice + ` triggered "damage" against ` + bob + ` (damage "lots")`},
		{"heal empty amount", alice + ` triggered "healed" against ` + bob + ` (healing "")`},
		{"unknown trigger", alice + ` triggered "shot_fired" (weapon "scattergun")`},
		{"spectator team", alice + ` joined team "Spectator"`},
		{"intel defended", alice + ` triggered "flagevent" (event "defended")`},
		{"team capture without player", `Team "Red" triggered "pointcaptured" (cp "0") (cpname "A") (numcappers "1") (player1 ` + bob + `)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &event.State{Player: "Alice", Killstreak: 3, Class: "Scout"}
			before := *st

			_, ok := Classify(tt.input, st, DefaultRules())
			assert.False(t, ok)
			assert.Equal(t, before, *st, "state must not change")
		})
	}
}

func TestClassify_KillstreakScenario(t *testing.T) {
	st := event.NewState("Alice")
	lines := []string{
		`"Alice" killed "Bob" with "scattergun"`,
		`"Alice" killed "Bob" with "scattergun"`,
		`"Bob" killed "Alice" with "rocketlauncher"`,
	}
	want := []struct {
		kind    event.Kind
		subject string
		mag     int
	}{
		{event.Kill, "scattergun", 1},
		{event.Kill, "scattergun", 2},
		{event.Death, "rocketlauncher", 0},
	}

	for i, line := range lines {
		got, ok := Classify(line, st, DefaultRules())
		require.True(t, ok, "line %d", i)
		assert.Equal(t, want[i].kind, got.Kind, "line %d", i)
		assert.Equal(t, want[i].subject, got.Subject, "line %d", i)
		require.NotNil(t, got.Magnitude, "line %d", i)
		assert.Equal(t, want[i].mag, *got.Magnitude, "line %d", i)
	}
	assert.Equal(t, 0, st.Killstreak)
}

func TestClassify_ResetsKillstreak(t *testing.T) {
	resets := []string{
		"Alice suicided.",
		alice + ` spawned as "Medic"`,
		alice + ` changed role to "spy"`,
		alice + ` joined team "Red"`,
		`World triggered "Round_Win" (winner "Blue")`,
		`World triggered "Round_Stalemate"`,
		`World triggered "Game_Over" reason "Reached Time Limit"`,
		`Started map "ctf_2fort" (crc "abc")`,
		bob + ` triggered "domination" against ` + alice,
		"Bob killed Alice.",
		"Bob telefragged Alice",
		"Bob taunt-killed Alice",
		"Bob sacrificed Alice",
		"Bob killed Alice with the assistance of Carol",
		"Bob killed Alice while ÜberCharged",
		"Bob airblasted Alice to their death",
	}

	for _, line := range resets {
		t.Run(line, func(t *testing.T) {
			st := &event.State{Player: "Alice", Killstreak: 5}
			_, ok := Classify(line, st, DefaultRules())
			require.True(t, ok)
			assert.Equal(t, 0, st.Killstreak)
		})
	}
}

func TestClassify_SpawnRecordsClass(t *testing.T) {
	st := event.NewState("alice")
	_, ok := Classify(`"Alice<3><[U:1:1]><Red>" spawned as "Saxton Hale"`, st, DefaultRules())
	require.True(t, ok)
	assert.Equal(t, "Saxton Hale", st.Class)
}

func TestClassify_Precedence(t *testing.T) {
	line := alice + ` triggered "backstab" against ` + bob

	// The generic rule alone would swallow the line without an event.
	generic := []Rule{*ruleByID(t, "triggered")}
	_, ok := Classify(line, event.NewState("Alice"), generic)
	assert.False(t, ok)

	got, ok := Classify(line, event.NewState("Alice"), DefaultRules())
	require.True(t, ok)
	assert.Equal(t, event.SpyBackstab, got.Kind)
}

func TestClassify_Timestamp(t *testing.T) {
	got, ok := Classify("10/12/2024 - 20:01:02: Alice killed Bob with scattergun.\r\n", event.NewState("Alice"), DefaultRules())
	require.True(t, ok)

	want := time.Date(2024, 10, 12, 20, 1, 2, 0, time.Local)
	assert.True(t, got.Timestamp.Equal(want), "got %v", got.Timestamp)
	assert.Equal(t, "10/12/2024 - 20:01:02: Alice killed Bob with scattergun.", got.RawLine)
	assert.Equal(t, "Alice", got.Actor)
	assert.Equal(t, "Bob", got.Target)
}

func TestClassify_NameWithSpaces(t *testing.T) {
	line := `"Alice Smith<3><[U:1:1]><Red>" killed "Bob<4><[U:1:2]><Blue>" with "knife" (customkill "backstab")`
	got, ok := Classify(line, event.NewState("alice smith"), DefaultRules())
	require.True(t, ok)
	assert.Equal(t, event.Kill, got.Kind)
	assert.Equal(t, "knife", got.Subject)
	assert.Equal(t, "Alice Smith", got.Actor)
}

func TestClassify_EmptyPlayer(t *testing.T) {
	st := event.NewState("")

	_, ok := Classify("Alice killed Bob with scattergun.", st, DefaultRules())
	assert.False(t, ok)

	got, ok := Classify(`Loading map "pl_upward"`, st, DefaultRules())
	require.True(t, ok)
	assert.Equal(t, event.MapChange, got.Kind)
}

func TestNormalizeWeapon(t *testing.T) {
	assert.Equal(t, "scattergun", NormalizeWeapon("Scattergun"))
	assert.Equal(t, "conniver's_kunai", NormalizeWeapon("conniver's_kunai"))
	assert.Equal(t, event.UnknownWeapon, NormalizeWeapon("banana"))
	assert.Equal(t, event.UnknownWeapon, NormalizeWeapon(""))
}

func TestKnownWeapon(t *testing.T) {
	assert.True(t, KnownWeapon("tf_projectile_rocket"))
	assert.True(t, KnownWeapon(" Minigun "))
	assert.True(t, KnownWeapon("telefrag"))
	assert.False(t, KnownWeapon("banana"))
	assert.False(t, KnownWeapon(""))
}

func TestCompile_Placeholders(t *testing.T) {
	re, err := Compile(`^{actor} taunted {target}{tail}`)
	require.NoError(t, err)

	m := re.FindStringSubmatch(alice + ` taunted ` + bob + ` (taunt "1")`)
	require.NotNil(t, m)
	assert.Equal(t, "Alice", m[re.SubexpIndex("actor")])
	assert.Equal(t, "Bob", m[re.SubexpIndex("target")])
}

func FuzzClassify(f *testing.F) {
	f.Add("Alice killed Bob with scattergun.")
	f.Add(alice + ` triggered "damage" against ` + bob + ` (damage "54")`)
	f.Add(`World triggered "Round_Win" (winner "Red")`)
	f.Add("")
	f.Add("\xff\xfe\xfd")

	f.Fuzz(func(t *testing.T, line string) {
		// Should not panic
		_, _ = Classify(line, event.NewState("Alice"), DefaultRules())
	})
}

func ruleByID(t *testing.T, id string) *Rule {
	t.Helper()
	for i := range defaultRules {
		if defaultRules[i].ID == id {
			return &defaultRules[i]
		}
	}
	t.Fatalf("no rule %q", id)
	return nil
}
