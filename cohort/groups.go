package cohort

// DefaultLabel is the synthetic group label used when the table has no
// label column.
const DefaultLabel = "0"

// Labels returns the group label of every subject.  When the table has
// no label column every subject gets the given default label, forming a
// single implicit group.
func Labels(t *Table, def string) []string {

	labels := make([]string, t.NumRows())
	col := t.Col(labelCol)
	for i := range labels {
		if col == nil {
			labels[i] = def
		} else {
			labels[i] = col[i]
		}
	}

	return labels
}

// Split partitions the table into one subset per distinct label.  The
// subsets are returned in first-occurrence order of the labels, with
// the original row order preserved inside each subset; together they
// cover every row exactly once.
func Split(t *Table, labels []string) ([]*Table, []string) {

	var uniq []string
	rows := make(map[string][]int)
	for i, la := range labels {
		if _, ok := rows[la]; !ok {
			uniq = append(uniq, la)
		}
		rows[la] = append(rows[la], i)
	}

	subsets := make([]*Table, len(uniq))
	for i, la := range uniq {
		subsets[i] = t.Subset(rows[la])
	}

	return subsets, uniq
}
