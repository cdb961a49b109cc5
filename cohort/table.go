// Package cohort models the tabular subject input of a survival
// analysis run: reading the tab-separated table, resolving per-subject
// durations and event indicators for an analysis type, partitioning
// subjects into labeled groups, and extracting censored subjects.
package cohort

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Standard column names of the input table.
const (
	sampleIDCol  = "sample_id"
	labelCol     = "label"
	diagnosisCol = "diagnosis_date"
)

// Table is a column-oriented view of a subject table.  Cells are kept
// as raw strings so that the duration resolution tiers can decide per
// row what parses and what does not.
type Table struct {
	names []string
	cols  map[string][]string
	nrows int
}

// ReadTSV reads a tab-separated table with a header row.  A table with
// a header and no data rows is valid.
func ReadTSV(r io.Reader) (*Table, error) {

	cr := csv.NewReader(r)
	cr.Comma = '\t'

	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cohort: reading table: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("cohort: table has no header row")
	}

	t := &Table{
		names: recs[0],
		cols:  make(map[string][]string),
		nrows: len(recs) - 1,
	}
	for j, na := range t.names {
		col := make([]string, t.nrows)
		for i, rec := range recs[1:] {
			col[i] = rec[j]
		}
		t.cols[na] = col
	}

	return t, nil
}

// OpenTSV reads a tab-separated table from the given file.
func OpenTSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cohort: %w", err)
	}
	defer f.Close()
	return ReadTSV(f)
}

// Names returns the column names in file order.
func (t *Table) Names() []string {
	return t.names
}

// NumRows returns the number of subject rows.
func (t *Table) NumRows() int {
	return t.nrows
}

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Col returns the named column, or nil if it is not present.
func (t *Table) Col(name string) []string {
	return t.cols[name]
}

// SampleIDs returns the sample_id column, or nil if it is not present.
func (t *Table) SampleIDs() []string {
	return t.cols[sampleIDCol]
}

// Subset returns a new table holding the given rows, in the given
// order.
func (t *Table) Subset(rows []int) *Table {

	s := &Table{
		names: t.names,
		cols:  make(map[string][]string),
		nrows: len(rows),
	}
	for na, col := range t.cols {
		sc := make([]string, len(rows))
		for i, r := range rows {
			sc[i] = col[r]
		}
		s.cols[na] = sc
	}

	return s
}
