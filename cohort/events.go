package cohort

import (
	"fmt"
	"strconv"
	"strings"
)

// ClassifyEvents derives the binary event indicator for every subject
// of the table.  For Vital the event is death, signalled by a false
// vital_status; for Progress the event is progression, signalled by a
// true progression_status.  The second result reports per subject
// whether the status cell parsed as a boolean; rows where it did not
// must not reach the estimator.
//
// A missing status column or an unknown analysis type is a
// configuration error.
func ClassifyEvents(t *Table, at AnalysisType) (events, ok []bool, err error) {

	cols, found := survivalColumns[at]
	if !found {
		return nil, nil, fmt.Errorf("cohort: analysis type %q not in ['vital', 'progress']", at)
	}

	col := t.Col(cols.statusCol)
	if col == nil {
		return nil, nil, fmt.Errorf("cohort: status column '%s' not in table", cols.statusCol)
	}

	events = make([]bool, len(col))
	ok = make([]bool, len(col))
	for i, cell := range col {
		v, perr := strconv.ParseBool(strings.ToLower(strings.TrimSpace(cell)))
		if perr != nil {
			continue
		}
		ok[i] = true
		if at == Vital {
			events[i] = !v
		} else {
			events[i] = v
		}
	}

	return events, ok, nil
}
