package cohort

// CensoredRecord identifies a right censored subject and the number of
// days observed before censoring.
type CensoredRecord struct {
	SampleID string
	Days     float64
}

// Censored returns the subjects whose event indicator is false, in the
// original order.  An empty result is valid: every subject experienced
// the event.
func Censored(ids []string, days []float64, events []bool) []CensoredRecord {

	var recs []CensoredRecord
	for i, ev := range events {
		if ev {
			continue
		}
		recs = append(recs, CensoredRecord{SampleID: ids[i], Days: days[i]})
	}

	return recs
}
