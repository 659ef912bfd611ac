package nst

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/borealis/internal/team"
)

// Record is one parsed table row: identity labels (player, team, position)
// plus the numeric stats.
type Record struct {
	Labels map[string]string
	Values map[string]float64
}

// Label returns a text cell by cleaned column name.
func (r Record) Label(name string) string {
	return r.Labels[name]
}

// Value returns a numeric cell by cleaned column name.
func (r Record) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Table is one parsed stats table.
type Table struct {
	Columns []string
	Records []Record
}

// Parser extracts stats tables from fetched documents.
type Parser struct {
	teams team.Directory
}

// NewParser creates a parser that normalizes team cells through the
// directory.
func NewParser(teams team.Directory) *Parser {
	return &Parser{teams: teams}
}

// ParseTable extracts the first stats table from the document. Cells
// holding "-" are treated as missing, TOI columns convert from MM:SS to
// decimal minutes, and team cells map onto NHL tricodes.
func (p *Parser) ParseTable(doc *goquery.Document) (*Table, error) {
	sel := doc.Find("table#players").First()
	if sel.Length() == 0 {
		sel = doc.Find("table#teams").First()
	}
	if sel.Length() == 0 {
		sel = doc.Find("table").First()
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no table in document")
	}

	headers := headerNames(sel)
	if len(headers) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	t := &Table{}
	for _, name := range headers {
		// The leading row-number column has no name and is dropped
		if name != "" {
			t.Columns = append(t.Columns, name)
		}
	}

	rows := sel.Find("tbody tr")
	if rows.Length() == 0 {
		rows = sel.Find("tr").Slice(1, goquery.ToEnd)
	}

	rows.Each(func(_ int, tr *goquery.Selection) {
		rec := Record{
			Labels: make(map[string]string),
			Values: make(map[string]float64),
		}
		tr.Find("th, td").Each(func(i int, cell *goquery.Selection) {
			if i >= len(headers) {
				return
			}
			name := headers[i]
			if name == "" {
				return
			}
			p.setCell(&rec, name, strings.TrimSpace(cell.Text()))
		})
		if len(rec.Labels) > 0 || len(rec.Values) > 0 {
			t.Records = append(t.Records, rec)
		}
	})

	return t, nil
}

// setCell places one cell into a record under the table's rules.
func (p *Parser) setCell(rec *Record, name, text string) {
	if text == "" || text == "-" {
		return
	}

	switch {
	case name == "team":
		rec.Labels[name] = p.mapTeams(text)
	case strings.Contains(name, "toi"):
		if v, ok := parseTOI(text); ok {
			rec.Values[name] = v
		}
	default:
		if v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64); err == nil {
			rec.Values[name] = v
		} else {
			rec.Labels[name] = text
		}
	}
}

// mapTeams splits a comma-separated team cell and maps each entry onto its
// NHL tricode, keeping the raw label when no mapping exists.
func (p *Parser) mapTeams(cell string) string {
	parts := strings.Split(cell, ",")
	mapped := make([]string, 0, len(parts))
	for _, part := range parts {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		if abbr, ok := p.teams.Abbreviation(label); ok {
			mapped = append(mapped, abbr)
		} else {
			mapped = append(mapped, label)
		}
	}
	return strings.Join(mapped, ", ")
}

// headerNames reads and cleans the table's header row.
func headerNames(table *goquery.Selection) []string {
	var headers []string
	head := table.Find("thead th")
	if head.Length() == 0 {
		head = table.Find("tr").First().Find("th, td")
	}
	head.Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, CleanColumn(th.Text()))
	})
	return headers
}

var (
	nonAlnum       = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// CleanColumn normalizes a column header into a stable stat name:
// "TOI/GP" becomes "toi_per_gp", "SV%" becomes "sv_pct", "Avg. Shot
// Distance" becomes "avg_shot_distance".
func CleanColumn(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_per_")
	s = strings.ReplaceAll(s, "%", "_pct")
	s = nonAlnum.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToLower(s)
}

// parseTOI converts an MM:SS cell to decimal minutes rounded to two
// places. Plain numeric cells pass through unchanged.
func parseTOI(text string) (float64, bool) {
	if !strings.Contains(text, ":") {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	parts := strings.SplitN(text, ":", 2)
	minutes, err1 := strconv.ParseFloat(parts[0], 64)
	seconds, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return math.Round((minutes+seconds/60)*100) / 100, true
}
