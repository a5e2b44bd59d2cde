package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

// ErrUnknownStat is returned for a stat key outside the fixed set.
var ErrUnknownStat = errors.New("unknown stat")

// StatKey selects the metric a leaderboard ranks by.
type StatKey int

const (
	StatInvalid StatKey = iota
	Winrate
	KDA
	KillsPerMinute
	DeathsPerMinute
	DamagePerMinute
	TakenPerMinute
	HealingPerMinute
	SelfHealingPerMinute
	ShieldingPerMinute
	CreditsPerMinute
	ObjectivePerMinute
	AvgKills
	AvgDeaths
	AvgAssists
	AvgDamage
	AvgTaken
	DamageDelta
	AvgHealing
	AvgSelfHealing
	AvgShielding
	AvgCredits
	AvgObjective
	KillParticipation
	DamageShare
	Games
)

type statDef struct {
	name    string
	label   string
	healing bool
	value   func(model.PlayerStats) float64
}

var stats = map[StatKey]statDef{
	Winrate:              {"winrate", "Win Rate %", false, model.PlayerStats.Winrate},
	KDA:                  {"kda", "KDA", false, model.PlayerStats.KDA},
	KillsPerMinute:       {"kpm", "Kills/min", false, model.PlayerStats.KillsPerMinute},
	DeathsPerMinute:      {"deaths_pm", "Deaths/min", false, model.PlayerStats.DeathsPerMinute},
	DamagePerMinute:      {"dmg_pm", "Damage/min", false, model.PlayerStats.DamagePerMinute},
	TakenPerMinute:       {"taken_pm", "Taken/min", false, model.PlayerStats.TakenPerMinute},
	HealingPerMinute:     {"heal_pm", "Healing/min", true, model.PlayerStats.HealingPerMinute},
	SelfHealingPerMinute: {"self_heal_pm", "Self Heal/min", false, model.PlayerStats.SelfHealingPerMinute},
	ShieldingPerMinute:   {"shield_pm", "Shielding/min", false, model.PlayerStats.ShieldingPerMinute},
	CreditsPerMinute:     {"creds_pm", "Credits/min", false, model.PlayerStats.CreditsPerMinute},
	ObjectivePerMinute:   {"obj_pm", "Obj Time/min", false, model.PlayerStats.ObjectivePerMinute},
	AvgKills:             {"avg_kills", "Avg Kills", false, model.PlayerStats.AvgKills},
	AvgDeaths:            {"avg_deaths", "Avg Deaths", false, model.PlayerStats.AvgDeaths},
	AvgAssists:           {"avg_assists", "Avg Assists", false, model.PlayerStats.AvgAssists},
	AvgDamage:            {"avg_dmg", "Avg Damage", false, model.PlayerStats.AvgDamage},
	AvgTaken:             {"avg_taken", "Avg Taken", false, model.PlayerStats.AvgTaken},
	DamageDelta:          {"delta", "Damage Delta", false, model.PlayerStats.DamageDelta},
	AvgHealing:           {"avg_heal", "Avg Healing", true, model.PlayerStats.AvgHealing},
	AvgSelfHealing:       {"avg_self_heal", "Avg Self Heal", false, model.PlayerStats.AvgSelfHealing},
	AvgShielding:         {"avg_shield", "Avg Shielding", false, model.PlayerStats.AvgShielding},
	AvgCredits:           {"avg_creds", "Avg Credits", false, model.PlayerStats.AvgCredits},
	AvgObjective:         {"obj_time", "Avg Obj Time", false, model.PlayerStats.AvgObjective},
	KillParticipation:    {"kp", "Kill Part. %", false, func(s model.PlayerStats) float64 { return s.KillParticipation }},
	DamageShare:          {"dmg_share", "Damage Share %", false, func(s model.PlayerStats) float64 { return s.DamageShare }},
	Games:                {"games", "Games", false, func(s model.PlayerStats) float64 { return float64(s.Games) }},
}

var aliases = map[string]StatKey{
	"wr":                 Winrate,
	"dmg":                DamagePerMinute,
	"dpm":                DamagePerMinute,
	"hpm":                HealingPerMinute,
	"healing":            HealingPerMinute,
	"deaths":             DeathsPerMinute,
	"kill_participation": KillParticipation,
	"damage_share":       DamageShare,
}

var byName = func() map[string]StatKey {
	m := make(map[string]StatKey, len(stats)+len(aliases))
	for k, d := range stats {
		m[d.name] = k
	}
	for a, k := range aliases {
		m[a] = k
	}
	return m
}()

// ParseStatKey maps user text to a StatKey.
func ParseStatKey(s string) (StatKey, error) {
	if k, ok := byName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return StatInvalid, fmt.Errorf("%w %q (valid: %s)", ErrUnknownStat, s, strings.Join(StatNames(), ", "))
}

// StatNames lists the canonical stat names in declaration order.
func StatNames() []string {
	keys := make([]StatKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = stats[k].name
	}
	return out
}

// Valid reports whether k is one of the defined stats.
func (k StatKey) Valid() bool {
	_, ok := stats[k]
	return ok
}

func (k StatKey) String() string {
	if d, ok := stats[k]; ok {
		return d.name
	}
	return "invalid"
}

// Label is a human-readable column title.
func (k StatKey) Label() string { return stats[k].label }

// Healing reports whether k measures healing output, which defaults to
// support champions when no filter is given.
func (k StatKey) Healing() bool { return stats[k].healing }

// Value extracts the metric from s.
func (k StatKey) Value(s model.PlayerStats) float64 { return stats[k].value(s) }
