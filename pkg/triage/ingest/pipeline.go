package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/store"
	"github.com/cognicore/triage/pkg/triage/table"
)

// Sink receives the cleaned table. Implementations overwrite, never append.
type Sink interface {
	ReplaceTable(ctx context.Context, name string, t table.Table) (store.Run, error)
}

// Sources names the two raw inputs of an ETL run.
type Sources struct {
	MessagesPath   string
	CategoriesPath string
}

// Report summarizes one ETL run.
type Report struct {
	Messages      int
	Categories    int
	Joined        int
	Quarantined   []labels.Rejected
	Duplicates    int
	Rows          int
	UnknownGenres int
	Run           store.Run
}

// Pipeline orchestrates the offline flow:
// load → join → parse categories → dedup → persist
type Pipeline struct {
	parser *labels.Parser
	logger *zap.Logger
}

// NewPipeline creates an ETL pipeline. A nil logger disables logging.
func NewPipeline(parser *labels.Parser, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{parser: parser, logger: logger}
}

// Load reads both sources and joins them on id.
func (p *Pipeline) Load(src Sources, rep *Report) ([]Joined, error) {
	msgs, err := LoadMessages(src.MessagesPath)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	cats, err := LoadCategories(src.CategoriesPath)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	joined := Join(msgs, cats)
	rep.Messages = len(msgs)
	rep.Categories = len(cats)
	rep.Joined = len(joined)
	for _, m := range msgs {
		if !KnownGenre(m.Genre) {
			rep.UnknownGenres++
		}
	}

	p.logger.Info("loaded sources",
		zap.String("messages_path", src.MessagesPath),
		zap.String("categories_path", src.CategoriesPath),
		zap.Int("messages", rep.Messages),
		zap.Int("categories", rep.Categories),
		zap.Int("joined", rep.Joined),
	)
	if rep.UnknownGenres > 0 {
		p.logger.Warn("messages with unknown genre", zap.Int("count", rep.UnknownGenres))
	}
	return joined, nil
}

// Clean expands the encoded category field and drops duplicate rows.
func (p *Pipeline) Clean(joined []Joined, rep *Report) (table.Table, error) {
	fields := make([]string, len(joined))
	for i, j := range joined {
		fields[i] = j.Encoded
	}

	parsed, err := p.parser.Parse(fields)
	if err != nil {
		return table.Table{}, fmt.Errorf("parse categories: %w", err)
	}
	rep.Quarantined = parsed.Quarantined
	for _, q := range parsed.Quarantined {
		p.logger.Warn("quarantined row",
			zap.Int64("id", joined[q.Row].ID),
			zap.String("reason", q.Reason),
		)
	}

	rows := make([]table.Row, 0, len(joined))
	for i, j := range joined {
		if parsed.Rows[i] == nil {
			continue
		}
		rows = append(rows, table.Row{
			ID:       j.ID,
			Message:  j.Text,
			Original: j.Original,
			Genre:    j.Genre,
			Labels:   parsed.Rows[i],
		})
	}

	deduped := table.Dedup(rows)
	rep.Duplicates = len(rows) - len(deduped)
	rep.Rows = len(deduped)

	p.logger.Info("cleaned table",
		zap.Int("categories", parsed.Schema.Len()),
		zap.String("policy", string(p.parser.Policy())),
		zap.Int("quarantined", len(parsed.Quarantined)),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("rows", rep.Rows),
	)
	return table.Table{Schema: parsed.Schema, Rows: deduped}, nil
}

// Run executes the whole ETL. Nothing reaches the sink unless loading and
// cleaning both succeed.
func (p *Pipeline) Run(ctx context.Context, src Sources, sink Sink, name string) (Report, error) {
	var rep Report

	joined, err := p.Load(src, &rep)
	if err != nil {
		return rep, err
	}
	tbl, err := p.Clean(joined, &rep)
	if err != nil {
		return rep, err
	}

	run, err := sink.ReplaceTable(ctx, name, tbl)
	if err != nil {
		return rep, fmt.Errorf("persist table %q: %w", name, err)
	}
	rep.Run = run

	p.logger.Info("persisted table",
		zap.String("table", name),
		zap.String("run_id", run.ID),
		zap.String("schema", run.Fingerprint),
		zap.Int("rows", run.Rows),
	)
	return rep, nil
}
