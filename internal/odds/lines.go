package odds

import (
	"sort"
	"strings"
)

// SelectNearEvenLines picks, for each sportsbook independently, the
// over/under pair that best represents a balanced market:
//
//  1. Only the most recent quote per (side, handicap) is considered.
//  2. When the over and under sides share handicaps, both quotes at the
//     shared handicap closest to zero are returned (the lower handicap on
//     an exact tie). A balanced book quotes both sides of one line near
//     +100, so a shared handicap is the even-money line.
//  3. When no handicap is shared, the single (side, handicap) cell with
//     the most recent timestamp wins, and every over/under quote at that
//     handicap is returned (possibly just one side).
//
// Sides other than over/under (moneyline team sides) skip the pairing
// policy and pass through the most-recent dedupe only. Output is sorted by
// (sportsbook, side, handicap) so repeated runs over the same input agree.
func SelectNearEvenLines(quotes []Quote) []Quote {
	byBook := make(map[string][]Quote)
	books := make([]string, 0)
	for _, q := range quotes {
		if _, ok := byBook[q.Sportsbook]; !ok {
			books = append(books, q.Sportsbook)
		}
		byBook[q.Sportsbook] = append(byBook[q.Sportsbook], q)
	}
	sort.Strings(books)

	out := make([]Quote, 0, len(quotes))
	for _, book := range books {
		out = append(out, selectForBook(byBook[book])...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Sportsbook != b.Sportsbook {
			return a.Sportsbook < b.Sportsbook
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return handicapValue(a.Handicap) < handicapValue(b.Handicap)
	})
	return out
}

// line distinguishes a missing handicap from an explicit zero.
type line struct {
	value float64
	set   bool
}

func lineFor(h *float64) line {
	if h == nil {
		return line{}
	}
	return line{value: *h, set: true}
}

type cell struct {
	side string
	line line
}

func selectForBook(quotes []Quote) []Quote {
	latest := make(map[cell]Quote)
	for _, q := range quotes {
		k := cell{side: q.Side, line: lineFor(q.Handicap)}
		if cur, ok := latest[k]; !ok || q.Timestamp.After(cur.Timestamp) {
			latest[k] = q
		}
	}

	over := make(map[line]Quote)
	under := make(map[line]Quote)
	var passthrough []Quote
	for k, q := range latest {
		switch sideKind(k.side) {
		case "over":
			over[k.line] = q
		case "under":
			under[k.line] = q
		default:
			passthrough = append(passthrough, q)
		}
	}

	if len(over) == 0 && len(under) == 0 {
		return passthrough
	}

	var common []line
	for l := range over {
		if _, ok := under[l]; ok {
			common = append(common, l)
		}
	}

	var picked []Quote
	if len(common) > 0 {
		sort.Slice(common, func(i, j int) bool { return lessLine(common[i], common[j]) })
		best := common[0]
		picked = append(picked, over[best], under[best])
	} else {
		best, ok := mostRecentCell(over, under)
		if ok {
			if q, ok := over[best]; ok {
				picked = append(picked, q)
			}
			if q, ok := under[best]; ok {
				picked = append(picked, q)
			}
		}
	}

	return append(picked, passthrough...)
}

// mostRecentCell finds the handicap whose freshest quote, on either side,
// has the latest timestamp. Ties resolve toward the handicap closest to
// zero so the result does not depend on map iteration order.
func mostRecentCell(over, under map[line]Quote) (line, bool) {
	type candidate struct {
		line  line
		quote Quote
	}
	candidates := make([]candidate, 0, len(over)+len(under))
	for l, q := range over {
		candidates = append(candidates, candidate{line: l, quote: q})
	}
	for l, q := range under {
		candidates = append(candidates, candidate{line: l, quote: q})
	}
	if len(candidates) == 0 {
		return line{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.quote.Timestamp.Equal(b.quote.Timestamp) {
			return a.quote.Timestamp.After(b.quote.Timestamp)
		}
		return lessLine(a.line, b.line)
	})
	return candidates[0].line, true
}

func lessLine(a, b line) bool {
	if abs(a.value) != abs(b.value) {
		return abs(a.value) < abs(b.value)
	}
	if a.value != b.value {
		return a.value < b.value
	}
	return !a.set && b.set
}

func sideKind(side string) string {
	s := strings.ToLower(side)
	switch {
	case strings.HasPrefix(s, "over"):
		return "over"
	case strings.HasPrefix(s, "under"):
		return "under"
	default:
		return "other"
	}
}

func handicapValue(h *float64) float64 {
	if h == nil {
		return 0
	}
	return *h
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
