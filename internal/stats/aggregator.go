package stats

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Row is one game's worth of numbers for one entity (a team code or a
// player name). Values holds stat-name to value; a stat an upstream source
// did not report is simply absent from the map. Side is an optional
// secondary dimension such as home/away.
type Row struct {
	Entity string             `json:"entity"`
	Side   string             `json:"side,omitempty"`
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Term is one component of a ratio: a stat name and its coefficient in the
// summed numerator or denominator.
type Term struct {
	Stat  string
	Coeff float64
}

// Ratio defines a recomputed rate: Scale * sum(numerator terms) / sum
// (denominator terms), where each term sums a stat across the partition
// first. Save percentage is {Num: [{sa,1},{ga,-1}], Den: [{sa,1}],
// Scale: 100}.
type Ratio struct {
	Num   []Term
	Den   []Term
	Scale float64
}

// Schema classifies stat columns into aggregation kinds. Counts are
// summed; intensity stats are averaged; ratios are recomputed from summed
// components rather than averaged; composites sum already-recomputed
// ratios divided by 100. The classification is supplied by the caller that
// knows the table, never inferred from storage metadata.
type Schema struct {
	Counts     []string
	Intensity  []string
	Ratios     map[string]Ratio
	Composites map[string][]string
}

// Names returns every output stat name the schema produces.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Counts)+len(s.Intensity)+len(s.Ratios)+len(s.Composites))
	names = append(names, s.Counts...)
	names = append(names, s.Intensity...)
	for name := range s.Ratios {
		names = append(names, name)
	}
	for name := range s.Composites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate is the reduction of an entity's rows over a window. A nil
// value means the stat is undefined for the partition (never reported, or
// a ratio whose denominator summed to zero).
type Aggregate struct {
	Entity       string              `json:"entity"`
	Side         string              `json:"side,omitempty"`
	GamesPlayed  int                 `json:"games_played"`
	LastGameDate time.Time           `json:"last_game_date"`
	Values       map[string]*float64 `json:"values"`
}

// Value returns the named stat, or nil when undefined.
func (a Aggregate) Value(name string) *float64 {
	return a.Values[name]
}

// Options controls partitioning and presentation order.
type Options struct {
	// GroupBySide partitions by (entity, side) instead of entity alone.
	GroupBySide bool
	// SortBy names the stat to order results by; empty uses the schema's
	// first count stat. Descending unless SortAscending. Presentation
	// order only.
	SortBy        string
	SortAscending bool
}

// ComparisonOptions controls the rolling comparison across entities.
type ComparisonOptions struct {
	AsOf     time.Time
	NGames   int
	MinGames int
	// RankBy names the ratio stat the results are ordered by, best first.
	RankBy string
}

// Aggregator reduces per-game rows into per-entity aggregates under a
// fixed schema. It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	schema Schema
}

func NewAggregator(schema Schema) *Aggregator {
	return &Aggregator{schema: schema}
}

// Schema returns the aggregator's classification.
func (a *Aggregator) Schema() Schema {
	return a.schema
}

// Aggregate reduces rows into one aggregate per partition. Games played
// counts distinct dates, so duplicate rows for the same game never double
// count. Count stats are summed (rounded to three decimals, the identity
// for integer stats), intensity stats are averaged, ratio stats are
// recomputed from their summed components, and composites are derived from
// the recomputed ratios. Empty input yields an empty, non-nil slice.
func (a *Aggregator) Aggregate(rows []Row, opts Options) []Aggregate {
	type partition struct {
		entity   string
		side     string
		sums     map[string]float64
		present  map[string]int
		dates    map[string]struct{}
		lastGame time.Time
	}

	parts := make(map[string]*partition)
	order := make([]string, 0)

	for _, row := range rows {
		key := row.Entity
		if opts.GroupBySide {
			key = row.Entity + "\x00" + row.Side
		}
		p, ok := parts[key]
		if !ok {
			p = &partition{
				entity:  row.Entity,
				sums:    make(map[string]float64),
				present: make(map[string]int),
				dates:   make(map[string]struct{}),
			}
			if opts.GroupBySide {
				p.side = row.Side
			}
			parts[key] = p
			order = append(order, key)
		}

		gameDay := day(row.Date)
		p.dates[gameDay.Format("2006-01-02")] = struct{}{}
		if gameDay.After(p.lastGame) {
			p.lastGame = gameDay
		}
		for stat, v := range row.Values {
			p.sums[stat] += v
			p.present[stat]++
		}
	}

	out := make([]Aggregate, 0, len(parts))
	for _, key := range order {
		p := parts[key]
		agg := Aggregate{
			Entity:       p.entity,
			Side:         p.side,
			GamesPlayed:  len(p.dates),
			LastGameDate: p.lastGame,
			Values:       make(map[string]*float64, len(a.schema.Counts)+len(a.schema.Intensity)+len(a.schema.Ratios)+len(a.schema.Composites)),
		}

		for _, stat := range a.schema.Counts {
			if p.present[stat] == 0 {
				agg.Values[stat] = nil
				continue
			}
			agg.Values[stat] = ptr(round3(p.sums[stat]))
		}

		for _, stat := range a.schema.Intensity {
			n := p.present[stat]
			if n == 0 {
				agg.Values[stat] = nil
				continue
			}
			agg.Values[stat] = ptr(round3(p.sums[stat] / float64(n)))
		}

		for name, ratio := range a.schema.Ratios {
			agg.Values[name] = recomputeRatio(ratio, p.sums, p.present)
		}

		for name, components := range a.schema.Composites {
			agg.Values[name] = composite(components, agg.Values)
		}

		out = append(out, agg)
	}

	a.sortAggregates(out, opts)
	return out
}

// Rolling reduces the entity's most recent nGames rows dated at or before
// asOf. Rows tied on date keep their input order; callers needing a
// deterministic tie-break pre-sort. The second return is false when the
// entity has no rows in range.
func (a *Aggregator) Rolling(rows []Row, entity string, asOf time.Time, nGames int) (Aggregate, bool) {
	cutoff := day(asOf)

	window := make([]Row, 0, nGames)
	for _, row := range rows {
		if row.Entity != entity || day(row.Date).After(cutoff) {
			continue
		}
		window = append(window, row)
	}
	if len(window) == 0 {
		return Aggregate{}, false
	}

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Date.After(window[j].Date)
	})
	if nGames > 0 && len(window) > nGames {
		window = window[:nGames]
	}

	aggs := a.Aggregate(window, Options{})
	return aggs[0], true
}

// Comparison runs Rolling for every distinct entity in rows, drops
// entities under the minimum games-played threshold, and ranks the rest by
// the named ratio stat, best first. Entity partitions are independent, so
// the work fans out across a small worker pool.
func (a *Aggregator) Comparison(rows []Row, opts ComparisonOptions) []Aggregate {
	seen := make(map[string]struct{})
	entities := make([]string, 0)
	for _, row := range rows {
		if _, ok := seen[row.Entity]; ok {
			continue
		}
		seen[row.Entity] = struct{}{}
		entities = append(entities, row.Entity)
	}
	if len(entities) == 0 {
		return []Aggregate{}
	}

	workers := 4
	if len(entities) < workers {
		workers = len(entities)
	}

	work := make(chan string, len(entities))
	for _, entity := range entities {
		work <- entity
	}
	close(work)

	var (
		mu  sync.Mutex
		out = make([]Aggregate, 0, len(entities))
		wg  sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range work {
				agg, ok := a.Rolling(rows, entity, opts.AsOf, opts.NGames)
				if !ok || agg.GamesPlayed < opts.MinGames {
					continue
				}
				mu.Lock()
				out = append(out, agg)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		return lessByStat(out[i], out[j], opts.RankBy, false)
	})
	return out
}

func (a *Aggregator) sortAggregates(aggs []Aggregate, opts Options) {
	sortBy := opts.SortBy
	if sortBy == "" && len(a.schema.Counts) > 0 {
		sortBy = a.schema.Counts[0]
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		if sortBy == "" {
			return lessByEntity(aggs[i], aggs[j])
		}
		return lessByStat(aggs[i], aggs[j], sortBy, opts.SortAscending)
	})
}

// lessByStat orders aggregates by one stat, descending unless ascending is
// set. Undefined values always sort last; ties fall back to entity order.
func lessByStat(a, b Aggregate, stat string, ascending bool) bool {
	av, bv := a.Values[stat], b.Values[stat]
	switch {
	case av == nil && bv == nil:
		return lessByEntity(a, b)
	case av == nil:
		return false
	case bv == nil:
		return true
	case *av == *bv:
		return lessByEntity(a, b)
	case ascending:
		return *av < *bv
	default:
		return *av > *bv
	}
}

func lessByEntity(a, b Aggregate) bool {
	if a.Entity == b.Entity {
		return a.Side < b.Side
	}
	return a.Entity < b.Entity
}

// recomputeRatio sums each term's stat over the partition and evaluates
// scale*num/den. Undefined when a referenced stat never appeared or the
// denominator sums to zero.
func recomputeRatio(r Ratio, sums map[string]float64, present map[string]int) *float64 {
	num, ok := sumTerms(r.Num, sums, present)
	if !ok {
		return nil
	}
	den, ok := sumTerms(r.Den, sums, present)
	if !ok || den == 0 {
		return nil
	}
	return ptr(round3(r.Scale * num / den))
}

func sumTerms(terms []Term, sums map[string]float64, present map[string]int) (float64, bool) {
	total := 0.0
	for _, t := range terms {
		if present[t.Stat] == 0 {
			return 0, false
		}
		total += t.Coeff * sums[t.Stat]
	}
	return total, true
}

// composite sums the named recomputed ratios divided by 100. Undefined
// when any component is.
func composite(components []string, values map[string]*float64) *float64 {
	total := 0.0
	for _, name := range components {
		v := values[name]
		if v == nil {
			return nil
		}
		total += *v / 100
	}
	return ptr(round3(total))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ptr(v float64) *float64 {
	return &v
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
