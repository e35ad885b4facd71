package products

import (
	"errors"
	"sort"
	"time"
)

// ErrNoProviders is returned by callers that need a gap-free provider when
// ValidProviders comes back empty.
var ErrNoProviders = errors.New("no provider covers the window without gaps")

// GroupKey identifies a coverage group.
type GroupKey struct {
	Provider     string
	SolutionType string
	Format       string
}

// Gap is a hole in a groups temporal coverage: the covered interval ends at
// From but the next record does not begin before To.
type Gap struct {
	Key  GroupKey
	From time.Time
	To   time.Time
}

// Groups partitions the records by (provider, solution type, format) and
// sorts each group by date.
func Groups(recs []Record) map[GroupKey][]Record {
	groups := make(map[GroupKey][]Record)
	for _, r := range recs {
		k := GroupKey{Provider: r.Provider, SolutionType: r.SolutionType, Format: r.Format}
		groups[k] = append(groups[k], r)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
	}
	return groups
}

// FindGaps scans every group for adjacent records whose coverage intervals do
// not touch, i.e. rec.Date+rec.Period < next.Date. The result is sorted by
// group key and gap start.
func FindGaps(recs []Record) []Gap {
	var gaps []Gap
	for key, g := range Groups(recs) {
		for i := 0; i < len(g)-1; i++ {
			if end := g[i].End(); end.Before(g[i+1].Date) {
				gaps = append(gaps, Gap{Key: key, From: end, To: g[i+1].Date})
			}
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Key != b.Key {
			if a.Key.Provider != b.Key.Provider {
				return a.Key.Provider < b.Key.Provider
			}
			if a.Key.SolutionType != b.Key.SolutionType {
				return a.Key.SolutionType < b.Key.SolutionType
			}
			return a.Key.Format < b.Key.Format
		}
		return a.From.Before(b.From)
	})

	return gaps
}

// ValidProviders returns the providers offering gap-free coverage, sorted.
// A single gap in any of a providers groups disqualifies that provider
// entirely, even for its other solution types and formats.
func ValidProviders(recs []Record) []string {
	excluded := make(map[string]struct{})
	for _, gap := range FindGaps(recs) {
		excluded[gap.Key.Provider] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range recs {
		if _, bad := excluded[r.Provider]; bad {
			continue
		}
		if _, dup := seen[r.Provider]; dup {
			continue
		}
		seen[r.Provider] = struct{}{}
		out = append(out, r.Provider)
	}

	sort.Strings(out)
	return out
}
