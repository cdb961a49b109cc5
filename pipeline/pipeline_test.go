package pipeline

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/dkfz-unite/unite-analysis-kmeier/cohort"
)

func writeInput(t *testing.T, root, name, tsv string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readOutput(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = '\t'
	recs, err := cr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) == 0 {
		t.Fatalf("%s has no header", path)
	}
	return recs[0], recs[1:]
}

func column(t *testing.T, header []string, rows [][]string, name string) []float64 {
	t.Helper()
	j := -1
	for k, na := range header {
		if na == name {
			j = k
		}
	}
	if j == -1 {
		t.Fatalf("column %s not found in %v", name, header)
	}
	col := make([]float64, len(rows))
	for i, row := range rows {
		v, err := strconv.ParseFloat(row[j], 64)
		if err != nil {
			t.Fatal(err)
		}
		col[i] = v
	}
	return col
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunSingleGroupAllEvents(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tdiagnosis_date\tvital_status_change_date\tvital_status",
		"S1\t2020-01-01\t2020-01-11\tfalse",
		"S2\t2020-01-01\t2020-01-21\tfalse",
		"S3\t2020-01-01\t2020-01-31\tfalse",
		"S4\t2020-01-01\t2020-02-10\tfalse",
		"S5\t2020-01-01\t2020-02-20\tfalse",
		"",
	}, "\n"))

	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	header, rows := readOutput(t, filepath.Join(root, "result0.tsv"))
	times := column(t, header, rows, "time")
	probs := column(t, header, rows, "survival_prob")

	if !floats.EqualApprox(times, []float64{10, 20, 30, 40, 50}, 1e-12) {
		t.Errorf("times = %v", times)
	}
	if !floats.EqualApprox(probs, []float64{0.8, 0.6, 0.4, 0.2, 0}, 1e-12) {
		t.Errorf("probs = %v", probs)
	}

	// All subjects experienced the event: no censored records.
	_, censored := readOutput(t, filepath.Join(root, "censored0.tsv"))
	if len(censored) != 0 {
		t.Errorf("got %d censored records, want 0", len(censored))
	}

	// A single group skips the comparison.
	if exists(filepath.Join(root, "logrank_test.tsv")) {
		t.Error("logrank output written for a single group")
	}
}

func TestRunDayFallback(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tdiagnosis_date\tvital_status_change_date\tvital_status_change_day\tvital_status",
		"S1\t2020-01-01\t2020-01-11\t\tfalse",
		"S2\t2020-01-01\t\t42\ttrue",
		"",
	}, "\n"))

	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	header, rows := readOutput(t, filepath.Join(root, "result0.tsv"))
	times := column(t, header, rows, "time")
	if !floats.EqualApprox(times, []float64{10, 42}, 1e-12) {
		t.Errorf("times = %v, want [10 42]", times)
	}

	// S2 is alive at last observation, censored at the fallback day.
	header, rows = readOutput(t, filepath.Join(root, "censored0.tsv"))
	if len(rows) != 1 || rows[0][0] != "S2" {
		t.Fatalf("censored rows = %v, want S2 only", rows)
	}
	days := column(t, header, rows, "days_at_censoring")
	if days[0] != 42 {
		t.Errorf("days_at_censoring = %v, want 42", days[0])
	}
}

func TestRunTwoGroups(t *testing.T) {

	root := t.TempDir()
	var lines []string
	lines = append(lines, "sample_id\tlabel\tvital_status_change_day\tvital_status")
	for i := 0; i < 10; i++ {
		lines = append(lines, "A"+strconv.Itoa(i)+"\tA\t10\tfalse")
	}
	for i := 0; i < 10; i++ {
		lines = append(lines, "B"+strconv.Itoa(i)+"\tB\t100\tfalse")
	}
	lines = append(lines, "")
	writeInput(t, root, "input.tsv", strings.Join(lines, "\n"))

	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	for _, la := range []string{"A", "B"} {
		if !exists(filepath.Join(root, "result"+la+".tsv")) {
			t.Errorf("result%s.tsv not written", la)
		}
		if !exists(filepath.Join(root, "censored"+la+".tsv")) {
			t.Errorf("censored%s.tsv not written", la)
		}
	}

	header, rows := readOutput(t, filepath.Join(root, "logrank_test.tsv"))
	if len(rows) != 1 {
		t.Fatalf("logrank table has %d rows, want 1", len(rows))
	}
	chi2 := column(t, header, rows, "chi2")
	p := column(t, header, rows, "p")
	if math.Abs(chi2[0]-19) > 1e-8 {
		t.Errorf("chi2 = %v, want 19", chi2[0])
	}
	if p[0] <= 0 || p[0] >= 1e-4 {
		t.Errorf("p = %v, want < 1e-4", p[0])
	}
}

func TestRunExcludesUnresolved(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tdiagnosis_date\tvital_status_change_date\tvital_status",
		"S1\t2020-01-01\t2020-01-11\tfalse",
		"S2\t2020-01-01\t\tfalse",
		"",
	}, "\n"))

	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	header, rows := readOutput(t, filepath.Join(root, "result0.tsv"))
	times := column(t, header, rows, "time")
	if !floats.EqualApprox(times, []float64{10}, 1e-12) {
		t.Errorf("times = %v, want [10]", times)
	}
}

func TestRunEmptiedGroupSkipsComparison(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tlabel\tvital_status_change_day\tvital_status",
		"A1\tA\t10\tfalse",
		"A2\tA\t20\tfalse",
		"B1\tB\t\tfalse",
		"",
	}, "\n"))

	// Group B loses its only row to a resolution gap.  That is a
	// degenerate-group condition, handled locally: the run still
	// succeeds, both groups emit their tables, and the comparison
	// is skipped.
	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	_, rows := readOutput(t, filepath.Join(root, "resultA.tsv"))
	if len(rows) != 2 {
		t.Errorf("resultA.tsv has %d rows, want 2", len(rows))
	}
	_, rows = readOutput(t, filepath.Join(root, "resultB.tsv"))
	if len(rows) != 0 {
		t.Errorf("resultB.tsv has %d rows, want 0", len(rows))
	}
	if !exists(filepath.Join(root, "censoredB.tsv")) {
		t.Error("censoredB.tsv not written")
	}
	if exists(filepath.Join(root, "logrank_test.tsv")) {
		t.Error("logrank output written with only one populated group")
	}
}

func TestRunAllCensoredSkipsComparison(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tlabel\tvital_status_change_day\tvital_status",
		"A1\tA\t10\ttrue",
		"A2\tA\t20\ttrue",
		"B1\tB\t30\ttrue",
		"B2\tB\t40\ttrue",
		"",
	}, "\n"))

	// With every subject censored there are no events to compare;
	// the comparison is skipped rather than failing the run.
	if err := Run(root, cohort.Vital, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	for _, la := range []string{"A", "B"} {
		if !exists(filepath.Join(root, "result"+la+".tsv")) {
			t.Errorf("result%s.tsv not written", la)
		}
	}
	if exists(filepath.Join(root, "logrank_test.tsv")) {
		t.Error("logrank output written for an event-free population")
	}
}

func TestRunConfigError(t *testing.T) {

	root := t.TempDir()
	writeInput(t, root, "input.tsv", strings.Join([]string{
		"sample_id\tlabel\tvital_status_change_day",
		"S1\tA\t10",
		"S2\tB\t20",
		"",
	}, "\n"))

	// The status column is missing: the run must fail before any
	// output is written, for every group.
	if err := Run(root, cohort.Vital, DefaultConfig()); err == nil {
		t.Fatal("expected configuration error")
	}
	for _, name := range []string{"resultA.tsv", "resultB.tsv", "censoredA.tsv", "logrank_test.tsv"} {
		if exists(filepath.Join(root, name)) {
			t.Errorf("%s written despite configuration error", name)
		}
	}
}

func TestLoadConfig(t *testing.T) {

	root := t.TempDir()

	// No file: defaults apply.
	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "input.tsv" || cfg.ConfLevel != 0.95 || cfg.DefaultLabel != cohort.DefaultLabel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	// Partial file: only the named fields change.
	writeInput(t, root, ConfigFile, "input: data.tsv\nconf_level: 0.9\n")
	cfg, err = LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "data.tsv" || cfg.ConfLevel != 0.9 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DefaultLabel != cohort.DefaultLabel {
		t.Errorf("default label changed unexpectedly: %+v", cfg)
	}
}
