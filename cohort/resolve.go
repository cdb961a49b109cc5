package cohort

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AnalysisType selects which event the analysis is about: death
// (overall survival) or disease progression (progression-free
// survival).
type AnalysisType int

const (
	// Vital analyzes overall survival; the terminal event is death.
	Vital AnalysisType = iota

	// Progress analyzes progression-free survival; the terminal
	// event is disease progression.
	Progress
)

// String returns the external name of the analysis type.
func (at AnalysisType) String() string {
	switch at {
	case Vital:
		return "vital"
	case Progress:
		return "progress"
	}
	return fmt.Sprintf("AnalysisType(%d)", int(at))
}

// ParseAnalysisType converts an external analysis type name to an
// AnalysisType.
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch s {
	case "vital":
		return Vital, nil
	case "progress":
		return Progress, nil
	}
	return 0, fmt.Errorf("cohort: analysis type %q not in ['vital', 'progress']", s)
}

// survivalColumns maps each analysis type to the columns it consults:
// the follow-up date column (tier 1, together with diagnosis_date), the
// explicit day-count column (tier 2), and the status column used for
// event classification.
var survivalColumns = map[AnalysisType]struct {
	dateCol   string
	dayCol    string
	statusCol string
}{
	Vital: {
		dateCol:   "vital_status_change_date",
		dayCol:    "vital_status_change_day",
		statusCol: "vital_status",
	},
	Progress: {
		dateCol:   "progression_status_change_date",
		dayCol:    "progression_status_change_day",
		statusCol: "progression_status",
	},
}

// Resolution holds the per-subject outcome of duration resolution.
// Days[i] is meaningful only where OK[i] is true; unresolved entries
// are NaN.
type Resolution struct {
	Days []float64
	OK   []bool
}

// ResolveDurations derives a duration in days for every subject of the
// table, using two tiers: the difference between the diagnosis date and
// the analysis type's follow-up date, and, only for subjects where the
// date pair does not resolve, the type's explicit day-count column.
//
// It returns a configuration error when the analysis type is unknown or
// when neither tier's columns are present in the table; an absent
// single tier simply fails for every row and defers to the other.
func ResolveDurations(t *Table, at AnalysisType) (*Resolution, error) {

	cols, ok := survivalColumns[at]
	if !ok {
		return nil, fmt.Errorf("cohort: analysis type %q not in ['vital', 'progress']", at)
	}

	hasDates := t.Has(diagnosisCol) && t.Has(cols.dateCol)
	hasDays := t.Has(cols.dayCol)
	if !hasDates && !hasDays {
		return nil, fmt.Errorf("cohort: no duration columns for %s analysis: need '%s' and '%s', or '%s'",
			at, diagnosisCol, cols.dateCol, cols.dayCol)
	}

	n := t.NumRows()
	res := &Resolution{
		Days: make([]float64, n),
		OK:   make([]bool, n),
	}
	for i := range res.Days {
		res.Days[i] = math.NaN()
	}

	if hasDates {
		diag := t.Col(diagnosisCol)
		census := t.Col(cols.dateCol)
		for i := 0; i < n; i++ {
			d, ok := daysBetween(diag[i], census[i])
			if ok {
				res.Days[i] = d
				res.OK[i] = true
			}
		}
	}

	if hasDays {
		day := t.Col(cols.dayCol)
		for i := 0; i < n; i++ {
			if res.OK[i] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(day[i]), 64)
			if err != nil || math.IsNaN(v) || v < 0 {
				continue
			}
			res.Days[i] = v
			res.OK[i] = true
		}
	}

	return res, nil
}

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, la := range dateLayouts {
		if d, err := time.Parse(la, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// daysBetween returns the whole number of days from the first date to
// the second.  It fails when either cell does not parse as a date, or
// when the second date precedes the first: a resolved duration is
// never negative.
func daysBetween(from, to string) (float64, bool) {
	t0, ok := parseDate(from)
	if !ok {
		return 0, false
	}
	t1, ok := parseDate(to)
	if !ok {
		return 0, false
	}
	d := math.Floor(t1.Sub(t0).Hours() / 24)
	if d < 0 {
		return 0, false
	}
	return d, true
}
