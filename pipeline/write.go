package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/dkfz-unite/unite-analysis-kmeier/cohort"
	"github.com/dkfz-unite/unite-analysis-kmeier/survival"
)

// writeTSV writes a header row plus data rows as a tab-separated file.
func writeTSV(path string, header []string, rows [][]string) error {

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return fmt.Errorf("pipeline: writing %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("pipeline: writing %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("pipeline: writing %s: %w", path, err)
	}

	return nil
}

func ftos(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCurve(path string, km *survival.KaplanMeier) error {

	ti := km.Time()
	pr := km.SurvProb()
	lo := km.ConfIntLower()
	hi := km.ConfIntUpper()

	rows := make([][]string, len(ti))
	for i := range ti {
		rows[i] = []string{ftos(ti[i]), ftos(pr[i]), ftos(lo[i]), ftos(hi[i])}
	}

	return writeTSV(path, []string{"time", "survival_prob", "conf_int_lower", "conf_int_upper"}, rows)
}

func writeCensored(path string, recs []cohort.CensoredRecord) error {

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{r.SampleID, ftos(r.Days)}
	}

	return writeTSV(path, []string{"sample_id", "days_at_censoring"}, rows)
}

func writeLogrank(path string, lr survival.LogrankResult) error {

	rows := [][]string{{ftos(lr.Chi2), ftos(lr.P)}}

	return writeTSV(path, []string{"chi2", "p"}, rows)
}
