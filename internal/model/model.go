package model

import "time"

// Team is the side a player was on in a match (1 or 2).
type Team int

const (
	TeamUnknown Team = 0
	Team1       Team = 1
	Team2       Team = 2
)

func (t Team) String() string {
	switch t {
	case Team1:
		return "T1"
	case Team2:
		return "T2"
	default:
		return "?"
	}
}

// Role is a champion's gameplay class.
type Role string

const (
	RoleDamage  Role = "Damage"
	RoleFlank   Role = "Flank"
	RoleTank    Role = "Tank"
	RoleSupport Role = "Support"
)

// ---- Parsed input ----

// Report is one parsed match report: a header plus ordered player lines.
type Report struct {
	MatchID    int64
	Duration   int // minutes
	Region     string
	Map        string
	Team1Score int
	Team2Score int
	Players    []PlayerLine
}

// PlayerLine is one player's row in a report.
type PlayerLine struct {
	Name          string
	Champion      string
	Build         string
	Team          Team
	Credits       int
	Kills         int
	Deaths        int
	Assists       int
	Damage        int
	Taken         int
	ObjectiveTime int
	Shielding     int
	Healing       int
	SelfHealing   int
}

// ---- Stored entities ----

// Match is a stored match header.
type Match struct {
	MatchID    int64
	GroupingNo *int64
	Duration   int
	Region     string
	Map        string
	Team1Score int
	Team2Score int
	IngestedAt time.Time
}

// Winner returns the winning team, or TeamUnknown on a tied score.
func (m Match) Winner() Team {
	switch {
	case m.Team1Score > m.Team2Score:
		return Team1
	case m.Team2Score > m.Team1Score:
		return Team2
	default:
		return TeamUnknown
	}
}

// Won reports whether team won the match. Ties are a loss for both sides.
func Won(team Team, team1Score, team2Score int) bool {
	return (team == Team1 && team1Score > team2Score) ||
		(team == Team2 && team2Score > team1Score)
}

// PlayerIdentity is one human participant.
type PlayerIdentity struct {
	ID      int64
	Name    string
	Handle  string // empty when not linked
	Aliases []string
}

// Linked reports whether an external handle is attached.
func (p PlayerIdentity) Linked() bool { return p.Handle != "" }

// MatchRecord is one participant's stored line within one match.
type MatchRecord struct {
	ID       int64
	MatchID  int64
	PlayerID int64
	PlayerLine // Name holds the identity's primary name on read
}

// StatRow is a MatchRecord joined with its match header and the per-match
// team totals needed for share metrics.
type StatRow struct {
	MatchID    int64
	PlayerID   int64
	Name       string
	Champion   string
	Role       Role
	Team       Team
	Duration   int
	Team1Score int
	Team2Score int
	IngestedAt time.Time

	Credits       int
	Kills         int
	Deaths        int
	Assists       int
	Damage        int
	Taken         int
	ObjectiveTime int
	Shielding     int
	Healing       int
	SelfHealing   int

	TeamKillsAssists int
	TeamDamage       int
}

// Won reports whether the row's team won its match.
func (r StatRow) Won() bool { return Won(r.Team, r.Team1Score, r.Team2Score) }

// ---- Derived ----

// PlayerStats is the aggregate over a set of StatRows.
type PlayerStats struct {
	Games   int
	Wins    int
	Losses  int
	Minutes int

	Kills         int
	Deaths        int
	Assists       int
	Damage        int
	Taken         int
	Credits       int
	ObjectiveTime int
	Shielding     int
	SelfHealing   int

	// Healing totals may cover fewer games than the rest; see HealingGames.
	Healing        int
	HealingGames   int
	HealingMinutes int

	KillParticipation float64 // mean per-match percentage
	DamageShare       float64 // mean per-match percentage
}

func floor1(n int) float64 {
	if n < 1 {
		return 1
	}
	return float64(n)
}

// Winrate returns the win percentage.
func (s PlayerStats) Winrate() float64 {
	if s.Games == 0 {
		return 0
	}
	return 100 * float64(s.Wins) / float64(s.Games)
}

// KDA returns (kills+assists)/deaths with deaths floored at 1.
func (s PlayerStats) KDA() float64 {
	return float64(s.Kills+s.Assists) / floor1(s.Deaths)
}

func (s PlayerStats) perMinute(v int) float64 { return float64(v) / floor1(s.Minutes) }
func (s PlayerStats) perGame(v int) float64   { return float64(v) / floor1(s.Games) }

func (s PlayerStats) KillsPerMinute() float64       { return s.perMinute(s.Kills) }
func (s PlayerStats) DeathsPerMinute() float64      { return s.perMinute(s.Deaths) }
func (s PlayerStats) AssistsPerMinute() float64     { return s.perMinute(s.Assists) }
func (s PlayerStats) DamagePerMinute() float64      { return s.perMinute(s.Damage) }
func (s PlayerStats) TakenPerMinute() float64       { return s.perMinute(s.Taken) }
func (s PlayerStats) SelfHealingPerMinute() float64 { return s.perMinute(s.SelfHealing) }
func (s PlayerStats) ShieldingPerMinute() float64   { return s.perMinute(s.Shielding) }
func (s PlayerStats) CreditsPerMinute() float64     { return s.perMinute(s.Credits) }
func (s PlayerStats) ObjectivePerMinute() float64   { return s.perMinute(s.ObjectiveTime) }

// HealingPerMinute uses the healing-scoped minutes.
func (s PlayerStats) HealingPerMinute() float64 {
	return float64(s.Healing) / floor1(s.HealingMinutes)
}

func (s PlayerStats) AvgKills() float64       { return s.perGame(s.Kills) }
func (s PlayerStats) AvgDeaths() float64      { return s.perGame(s.Deaths) }
func (s PlayerStats) AvgAssists() float64     { return s.perGame(s.Assists) }
func (s PlayerStats) AvgDamage() float64      { return s.perGame(s.Damage) }
func (s PlayerStats) AvgTaken() float64       { return s.perGame(s.Taken) }
func (s PlayerStats) AvgSelfHealing() float64 { return s.perGame(s.SelfHealing) }
func (s PlayerStats) AvgShielding() float64   { return s.perGame(s.Shielding) }
func (s PlayerStats) AvgCredits() float64     { return s.perGame(s.Credits) }
func (s PlayerStats) AvgObjective() float64   { return s.perGame(s.ObjectiveTime) }

// AvgHealing uses the healing-scoped game count.
func (s PlayerStats) AvgHealing() float64 {
	return float64(s.Healing) / floor1(s.HealingGames)
}

// DamageDelta is average damage dealt minus average damage taken.
func (s PlayerStats) DamageDelta() float64 { return s.AvgDamage() - s.AvgTaken() }

// ChampionLine is one champion's aggregate for a single player.
type ChampionLine struct {
	Champion string
	Role     Role
	Stats    PlayerStats
}

// Matchup is the result of comparing two players across shared matches.
type Matchup struct {
	WithGames    int
	WithWins     int
	AgainstGames int
	AgainstWins  int // wins of the first player
}

func (m Matchup) WithWinrate() float64 {
	if m.WithGames == 0 {
		return 0
	}
	return 100 * float64(m.WithWins) / float64(m.WithGames)
}

func (m Matchup) AgainstWinrate() float64 {
	if m.AgainstGames == 0 {
		return 0
	}
	return 100 * float64(m.AgainstWins) / float64(m.AgainstGames)
}

// RankedEntry is one leaderboard row.
type RankedEntry struct {
	Rank     int // 1 = best for top listings, 1 = worst for bottom listings
	Standing int // position in the full best-first ordering
	Key      string
	Name     string
	Games    int
	Value    float64
	Stats    PlayerStats
}

// Overview is a high-level summary of the store.
type Overview struct {
	TotalMatches    int
	TotalPlayers    int
	LinkedPlayers   int
	TotalMinutes    int
	MapCounts       []NameCount
	TopPlayers      []NameCount
	TopChampions    []NameCount
	LatestIngestion time.Time
}

// NameCount pairs a label with a count.
type NameCount struct {
	Name  string
	Count int
}
