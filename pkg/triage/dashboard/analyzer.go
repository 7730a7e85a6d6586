package dashboard

import (
	"sort"
	"strings"

	"github.com/cognicore/triage/pkg/triage/table"
)

// Options selects which categories the dashboard summarizes.
type Options struct {
	// TopN limits the category ranking.
	TopN int
	// Distribution names the category whose 1/0 split is charted.
	Distribution string
	// Compare names the categories whose sums are charted against each other.
	Compare []string
}

// DefaultOptions returns the standard dashboard layout.
func DefaultOptions() Options {
	return Options{
		TopN:         10,
		Distribution: "related",
		Compare:      []string{"request", "offer"},
	}
}

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Bin is one histogram bucket: how many messages have WordCount words.
type Bin struct {
	WordCount int   `json:"word_count"`
	Messages  int64 `json:"messages"`
}

// Analyzer aggregates table rows into dashboard statistics.
type Analyzer struct {
	opts       Options
	totalRows  int64
	genres     map[string]int64
	sums       map[string]int64
	ones       map[string]int64 // rows where the category is 1
	seen       map[string]struct{}
	wordCounts map[int]int64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	return &Analyzer{
		opts:       opts,
		genres:     make(map[string]int64),
		sums:       make(map[string]int64),
		ones:       make(map[string]int64),
		seen:       make(map[string]struct{}),
		wordCounts: make(map[int]int64),
	}
}

// Process consumes one row.
func (a *Analyzer) Process(row table.Row) {
	a.totalRows++
	a.genres[row.Genre]++
	a.wordCounts[len(strings.Fields(row.Message))]++

	for _, l := range row.Labels {
		a.seen[l.Name] = struct{}{}
		a.sums[l.Name] += int64(l.Value)
		if l.Value == 1 {
			a.ones[l.Name]++
		}
	}
}

// Stats is a point-in-time summary of the processed rows.
type Stats struct {
	TotalRows     int64   `json:"total_rows"`
	Genres        []Count `json:"genres"`
	TopCategories []Count `json:"top_categories"`
	// Distribution is nil when the distribution category is absent.
	Distribution         []Count `json:"distribution,omitempty"`
	DistributionCategory string  `json:"distribution_category,omitempty"`
	// Compared is nil when any compared category is absent.
	Compared   []Count `json:"compared,omitempty"`
	WordCounts []Bin   `json:"word_counts"`
}

// Snapshot returns the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{TotalRows: a.totalRows}

	for g, n := range a.genres {
		s.Genres = append(s.Genres, Count{Name: g, Value: n})
	}
	sort.Slice(s.Genres, func(i, j int) bool { return s.Genres[i].Name < s.Genres[j].Name })

	for name := range a.seen {
		s.TopCategories = append(s.TopCategories, Count{Name: name, Value: a.sums[name]})
	}
	sort.Slice(s.TopCategories, func(i, j int) bool {
		if s.TopCategories[i].Value != s.TopCategories[j].Value {
			return s.TopCategories[i].Value > s.TopCategories[j].Value
		}
		return s.TopCategories[i].Name < s.TopCategories[j].Name
	})
	if len(s.TopCategories) > a.opts.TopN {
		s.TopCategories = s.TopCategories[:a.opts.TopN]
	}

	if name := a.opts.Distribution; name != "" {
		if _, ok := a.seen[name]; ok {
			s.Distribution = []Count{
				{Name: "1", Value: a.ones[name]},
				{Name: "0", Value: a.totalRows - a.ones[name]},
			}
			s.DistributionCategory = name
		}
	}

	if len(a.opts.Compare) > 0 {
		compared := make([]Count, 0, len(a.opts.Compare))
		for _, name := range a.opts.Compare {
			if _, ok := a.seen[name]; !ok {
				compared = nil
				break
			}
			compared = append(compared, Count{Name: name, Value: a.sums[name]})
		}
		s.Compared = compared
	}

	for wc, n := range a.wordCounts {
		s.WordCounts = append(s.WordCounts, Bin{WordCount: wc, Messages: n})
	}
	sort.Slice(s.WordCounts, func(i, j int) bool { return s.WordCounts[i].WordCount < s.WordCounts[j].WordCount })

	return s
}

// Summarize runs every row of t through a fresh analyzer.
func Summarize(t table.Table, opts Options) Stats {
	a := NewAnalyzer(opts)
	for _, row := range t.Rows {
		a.Process(row)
	}
	return a.Snapshot()
}
