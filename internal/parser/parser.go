package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

// TeamSize is the number of player lines assigned to team 1 before the
// remainder goes to team 2.
const TeamSize = 5

// PlayerFields is the exact field count of a player line.
const PlayerFields = 12

const headerFields = 6

// ErrMalformed is matched by every *ParseError via errors.Is.
var ErrMalformed = errors.New("malformed report")

// ParseError describes why a report was rejected. Line is 1-based over the
// non-empty lines of the report; the header is line 1.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Err.Error())
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %q)", e.Value)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets callers test any parse failure with errors.Is(err, ErrMalformed).
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// headerStart matches the first line of a report: a 9-12 digit match id
// followed by a comma.
var headerStart = regexp.MustCompile(`(?m)^\s*\d{9,12}\s*,`)

// FindReportStart returns the portion of text beginning at the first line
// that looks like a report header, and false when there is none.
func FindReportStart(text string) (string, bool) {
	loc := headerStart.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:], true
}

// Parse turns one raw report into a validated Report. Any failure aborts the
// whole parse; no partial report is ever returned.
func Parse(text string) (*model.Report, error) {
	text = strings.Trim(strings.TrimSpace(text), "`")

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, &ParseError{Err: errors.New("no data lines")}
	}

	rep, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}
	if len(lines) == 1 {
		return nil, &ParseError{Line: 1, Err: errors.New("no player lines after header")}
	}

	rep.Players = make([]model.PlayerLine, 0, len(lines)-1)
	for i, l := range lines[1:] {
		team := model.Team1
		if i >= TeamSize {
			team = model.Team2
		}
		p, err := parsePlayer(l, i+2)
		if err != nil {
			return nil, err
		}
		p.Team = team
		rep.Players = append(rep.Players, p)
	}
	return rep, nil
}

func parseHeader(line string) (*model.Report, error) {
	tok := strings.Split(line, ",")
	if len(tok) < headerFields {
		return nil, &ParseError{
			Line:  1,
			Value: line,
			Err:   fmt.Errorf("header needs %d comma-separated fields, found %d", headerFields, len(tok)),
		}
	}
	for i := range tok {
		tok[i] = strings.TrimSpace(tok[i])
	}

	matchID, err := strconv.ParseInt(tok[0], 10, 64)
	if err != nil || matchID <= 0 {
		return nil, &ParseError{Line: 1, Field: "match id", Value: tok[0], Err: errors.New("not a positive integer")}
	}
	rep := &model.Report{MatchID: matchID, Region: tok[2], Map: tok[3]}

	ints := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"duration", tok[1], &rep.Duration},
		{"team1 score", tok[4], &rep.Team1Score},
		{"team2 score", tok[5], &rep.Team2Score},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(f.raw)
		if err != nil || n < 0 {
			return nil, &ParseError{Line: 1, Field: f.name, Value: f.raw, Err: errors.New("not a non-negative integer")}
		}
		*f.dst = n
	}
	if rep.Region == "" {
		return nil, &ParseError{Line: 1, Field: "region", Err: errors.New("empty")}
	}
	if rep.Map == "" {
		return nil, &ParseError{Line: 1, Field: "map", Err: errors.New("empty")}
	}
	return rep, nil
}

// splitRecord reads a bracket-stripped player line as one comma-separated
// record quoted with single quotes. encoding/csv only knows double quotes,
// so the two quote characters are swapped around the read.
func splitRecord(content string) ([]string, error) {
	swap := strings.NewReplacer(`'`, `"`, `"`, `'`)
	r := csv.NewReader(strings.NewReader(swap.Replace(content)))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i, f := range rec {
		f = strings.TrimSpace(swap.Replace(f))
		// Names holding an apostrophe arrive wrapped in double quotes.
		if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
			f = f[1 : len(f)-1]
		}
		rec[i] = f
	}
	return rec, nil
}

func parsePlayer(line string, lineNo int) (model.PlayerLine, error) {
	var p model.PlayerLine
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return p, &ParseError{Line: lineNo, Value: line, Err: errors.New("player line must be wrapped in [ ]")}
	}
	content := strings.TrimSpace(line[1 : len(line)-1])
	if content == "" {
		return p, &ParseError{Line: lineNo, Err: errors.New("empty player line")}
	}

	f, err := splitRecord(content)
	if err != nil {
		return p, &ParseError{Line: lineNo, Value: line, Err: fmt.Errorf("unreadable record: %w", err)}
	}
	if len(f) != PlayerFields {
		return p, &ParseError{
			Line:  lineNo,
			Value: line,
			Err:   fmt.Errorf("expected %d fields, got %d", PlayerFields, len(f)),
		}
	}

	p.Name, p.Champion, p.Build = f[0], f[1], f[2]
	if p.Name == "" {
		return p, &ParseError{Line: lineNo, Field: "name", Err: errors.New("empty")}
	}
	if p.Champion == "" {
		return p, &ParseError{Line: lineNo, Field: "champion", Err: errors.New("empty")}
	}

	kda := strings.Split(f[4], "/")
	if len(kda) != 3 {
		return p, &ParseError{Line: lineNo, Field: "K/D/A", Value: f[4], Err: errors.New("expected kills/deaths/assists")}
	}
	for i, dst := range []*int{&p.Kills, &p.Deaths, &p.Assists} {
		n, err := strconv.Atoi(strings.TrimSpace(kda[i]))
		if err != nil || n < 0 {
			return p, &ParseError{Line: lineNo, Field: "K/D/A", Value: f[4], Err: errors.New("expected kills/deaths/assists")}
		}
		*dst = n
	}

	counters := []struct {
		idx      int
		name     string
		grouping bool
		dst      *int
	}{
		{5, "credits", true, &p.Credits},
		{6, "damage", true, &p.Damage},
		{7, "taken", true, &p.Taken},
		{8, "objective time", false, &p.ObjectiveTime},
		{9, "shielding", true, &p.Shielding},
		{10, "healing", true, &p.Healing},
		{11, "self healing", true, &p.SelfHealing},
	}
	for _, c := range counters {
		raw := f[c.idx]
		if c.grouping {
			raw = strings.ReplaceAll(raw, ",", "")
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, &ParseError{Line: lineNo, Field: c.name, Value: f[c.idx], Err: errors.New("not a non-negative integer")}
		}
		*c.dst = n
	}
	return p, nil
}
