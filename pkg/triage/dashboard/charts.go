package dashboard

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Chart kinds.
const (
	KindBar       = "bar"
	KindPie       = "pie"
	KindHistogram = "histogram"
)

// Chart is a renderer-neutral chart descriptor. Labels and Values are
// aligned; for histograms Labels are word counts.
type Chart struct {
	ID     string   `json:"id"`
	Kind   string   `json:"kind"`
	Title  string   `json:"title"`
	XTitle string   `json:"x_title,omitempty"`
	YTitle string   `json:"y_title,omitempty"`
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

// Charts turns the snapshot into chart descriptors. Charts whose category is
// missing from the table are left out.
func (s Stats) Charts() []Chart {
	title := cases.Title(language.English)
	var charts []Chart

	genres := Chart{
		ID:     "genres",
		Kind:   KindBar,
		Title:  "Distribution of Message Genres",
		XTitle: "Genre",
		YTitle: "Count",
	}
	fill(&genres, s.Genres)
	charts = append(charts, genres)

	top := Chart{
		ID:     "top-categories",
		Kind:   KindBar,
		Title:  "Top " + strconv.Itoa(len(s.TopCategories)) + " Most Frequent Categories",
		XTitle: "Category",
		YTitle: "Count",
	}
	fill(&top, s.TopCategories)
	charts = append(charts, top)

	if s.Distribution != nil {
		name := title.String(s.DistributionCategory)
		dist := Chart{
			ID:    "distribution",
			Kind:  KindPie,
			Title: "Distribution of the \"" + s.DistributionCategory + "\" Category",
		}
		for _, c := range s.Distribution {
			label := name + " (" + c.Name + ")"
			if c.Name == "0" {
				label = "Not " + label
			}
			dist.Labels = append(dist.Labels, label)
			dist.Values = append(dist.Values, c.Value)
		}
		charts = append(charts, dist)
	}

	if s.Compared != nil {
		cmp := Chart{ID: "compared", Kind: KindPie}
		for i, c := range s.Compared {
			if i > 0 {
				cmp.Title += " vs. "
			}
			cmp.Title += title.String(c.Name)
			cmp.Labels = append(cmp.Labels, title.String(c.Name))
			cmp.Values = append(cmp.Values, c.Value)
		}
		cmp.Title += " Messages"
		charts = append(charts, cmp)
	}

	hist := Chart{
		ID:     "word-counts",
		Kind:   KindHistogram,
		Title:  "Distribution of Message Word Counts",
		XTitle: "Word Count",
		YTitle: "Number of Messages",
	}
	for _, b := range s.WordCounts {
		hist.Labels = append(hist.Labels, strconv.Itoa(b.WordCount))
		hist.Values = append(hist.Values, b.Messages)
	}
	charts = append(charts, hist)

	return charts
}

func fill(c *Chart, counts []Count) {
	c.Labels = make([]string, 0, len(counts))
	c.Values = make([]int64, 0, len(counts))
	for _, n := range counts {
		c.Labels = append(c.Labels, n.Name)
		c.Values = append(c.Values, n.Value)
	}
}
