package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/triage/pkg/triage/internalerr"
)

// LoadMessages reads the messages CSV (id,message,original,genre).
func LoadMessages(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMessages(f)
}

// ReadMessages parses messages from CSV. Columns are located by header name;
// "original" is optional.
func ReadMessages(r io.Reader) ([]Message, error) {
	cr := newReader(r)
	cols, err := readHeader(cr, []string{"id", "message", "genre"}, []string{"original"})
	if err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}

	var out []Message
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("messages: %w", err)
		}
		id, err := parseID(rec[cols["id"]])
		if err != nil {
			return nil, fmt.Errorf("messages line %d: %w", line, err)
		}
		m := Message{
			ID:    id,
			Text:  rec[cols["message"]],
			Genre: strings.TrimSpace(rec[cols["genre"]]),
		}
		if i, ok := cols["original"]; ok {
			m.Original = rec[i]
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("messages line %d: %w: %v", line, internalerr.ErrInvalidInput, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// LoadCategories reads the categories CSV (id,categories).
func LoadCategories(path string) ([]CategoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCategories(f)
}

// ReadCategories parses category records from CSV.
func ReadCategories(r io.Reader) ([]CategoryRecord, error) {
	cr := newReader(r)
	cols, err := readHeader(cr, []string{"id", "categories"}, nil)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	var out []CategoryRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		id, err := parseID(rec[cols["id"]])
		if err != nil {
			return nil, fmt.Errorf("categories line %d: %w", line, err)
		}
		out = append(out, CategoryRecord{ID: id, Encoded: rec[cols["categories"]]})
	}
	return out, nil
}

// Join pairs messages and category records sharing an id (inner join).
// Output follows message order; a repeated id on the categories side yields
// one joined row per match, in categories order.
func Join(msgs []Message, cats []CategoryRecord) []Joined {
	byID := make(map[int64][]string, len(cats))
	for _, c := range cats {
		byID[c.ID] = append(byID[c.ID], c.Encoded)
	}

	out := make([]Joined, 0, len(msgs))
	for _, m := range msgs {
		for _, enc := range byID[m.ID] {
			out = append(out, Joined{Message: m, Encoded: enc})
		}
	}
	return out
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	// every record must have as many fields as the header
	cr.FieldsPerRecord = 0
	return cr
}

// readHeader maps lower-cased column names to indexes.
func readHeader(cr *csv.Reader, required, optional []string) (map[string]int, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", internalerr.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	all := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := all[h]; !dup {
			all[h] = i
		}
	}

	cols := make(map[string]int, len(required)+len(optional))
	for _, name := range required {
		i, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", internalerr.ErrInvalidInput, name)
		}
		cols[name] = i
	}
	for _, name := range optional {
		if i, ok := all[name]; ok {
			cols[name] = i
		}
	}
	return cols, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", internalerr.ErrInvalidInput, s)
	}
	return id, nil
}
