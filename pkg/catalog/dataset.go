package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"med-agent-be/pkg/store"

	"github.com/google/uuid"
)

// Source yields the full set of entries the index is built from.
type Source interface {
	Load(ctx context.Context) ([]store.CatalogEntry, error)
}

const (
	columnID   = "Drug ID"
	columnName = "Drug Name"
)

// contentColumns are rendered, in this order, into the free-text blob that
// gets embedded.
var contentColumns = []string{
	"Drug ID",
	"Drug Name",
	"Generic Name",
	"Drug Class",
	"Indications",
	"Dosage Form",
	"Strength",
	"Route of Administration",
	"Mechanism of Action",
	"Side Effects",
	"Contraindications",
	"Interactions",
	"Warnings and Precautions",
	"Pregnancy Category",
}

// CSVSource reads the vademecum dataset from a CSV file with a header row.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]store.CatalogEntry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a dataset. Rows without a name are skipped. Rows without an
// id get a name-derived UUID so rebuilds stay idempotent.
func ReadCSV(r io.Reader) ([]store.CatalogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := cols[columnName]; !ok {
		return nil, fmt.Errorf("dataset has no %q column", columnName)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []store.CatalogEntry
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}

		name := cell(row, columnName)
		if name == "" {
			continue
		}
		id := cell(row, columnID)
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
		}

		fields := make(map[store.CatalogField]string, len(store.CatalogFields))
		for _, f := range store.CatalogFields {
			if v := cell(row, f.Label()); v != "" {
				fields[f] = v
			}
		}

		var content []string
		for _, c := range contentColumns {
			if v := cell(row, c); v != "" {
				content = append(content, c+": "+v)
			}
		}

		entries = append(entries, store.CatalogEntry{
			ID:      id,
			Name:    name,
			Fields:  fields,
			Content: strings.Join(content, "\n"),
		})
	}
	return entries, nil
}

// StaticSource serves a fixed slice of entries.
type StaticSource []store.CatalogEntry

func (s StaticSource) Load(ctx context.Context) ([]store.CatalogEntry, error) {
	return s, nil
}
