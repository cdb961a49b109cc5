// Package pipeline orchestrates one survival analysis run: it loads the
// subject table, partitions it into labeled groups, resolves durations
// and event indicators per group, fits a Kaplan-Meier curve and extracts
// the censored subjects for each group, and compares the groups with a
// logrank test when there is more than one.
package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kshedden/dstream/dstream"

	"github.com/dkfz-unite/unite-analysis-kmeier/cohort"
	"github.com/dkfz-unite/unite-analysis-kmeier/survival"
)

// group holds the estimation-ready rows of one labeled subset: only
// subjects whose duration and event indicator both resolved.
type group struct {
	label  string
	ids    []string
	days   []float64
	events []bool
}

// Run executes one analysis over the table in root and writes the
// result tables back into root: result<label>.tsv and
// censored<label>.tsv per group, and logrank_test.tsv when at least two
// groups are present.
//
// Duration resolution and event classification run for every group
// before anything is written, so a configuration error (bad analysis
// type, required columns absent) aborts the run without partial output.
// Subjects whose duration or event indicator does not resolve are
// excluded with a warning.
func Run(root string, at cohort.AnalysisType, cfg Config) error {

	tbl, err := cohort.OpenTSV(filepath.Join(root, cfg.Input))
	if err != nil {
		return err
	}

	labels := cohort.Labels(tbl, cfg.DefaultLabel)
	subsets, uniq := cohort.Split(tbl, labels)

	groups := make([]group, 0, len(subsets))
	for i, sub := range subsets {
		g, err := resolveGroup(sub, uniq[i], at)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}

	for _, g := range groups {
		if err := emitGroup(root, g, cfg); err != nil {
			return err
		}
	}

	// Gate the comparison on the groups that still hold rows after
	// exclusion, not on the input labels: a group emptied by
	// row-level gaps leaves a degenerate population, and degenerate
	// conditions are handled locally rather than failing the run.
	var populated int
	for _, g := range groups {
		if len(g.days) > 0 {
			populated++
		}
	}
	if populated > 1 {
		if err := emitComparison(root, groups); err != nil {
			return err
		}
	} else if len(uniq) > 1 {
		slog.Warn("skipping group comparison", "labels", len(uniq), "populated_groups", populated)
	}

	return nil
}

// resolveGroup derives durations and event indicators for one subset
// and drops the rows where either is unresolved.
func resolveGroup(sub *cohort.Table, label string, at cohort.AnalysisType) (group, error) {

	res, err := cohort.ResolveDurations(sub, at)
	if err != nil {
		return group{}, err
	}

	events, evOK, err := cohort.ClassifyEvents(sub, at)
	if err != nil {
		return group{}, err
	}

	ids := sub.SampleIDs()
	if ids == nil {
		return group{}, fmt.Errorf("pipeline: column 'sample_id' not in table")
	}

	g := group{label: label}
	for i := 0; i < sub.NumRows(); i++ {
		if !res.OK[i] || !evOK[i] {
			slog.Warn("excluding subject with unresolved duration or status",
				"sample_id", ids[i], "label", label, "type", at.String())
			continue
		}
		g.ids = append(g.ids, ids[i])
		g.days = append(g.days, res.Days[i])
		g.events = append(g.events, events[i])
	}

	return g, nil
}

// emitGroup fits the survival curve for one group and writes its result
// and censored tables, plus the optional step plot.
func emitGroup(root string, g group, cfg Config) error {

	km, err := fitCurve(g.days, g.events, cfg.ConfLevel)
	if err != nil {
		return err
	}

	path := filepath.Join(root, "result"+g.label+".tsv")
	if err := writeCurve(path, km); err != nil {
		return err
	}
	slog.Info("wrote survival curve", "path", path, "rows", len(km.Time()))

	path = filepath.Join(root, "censored"+g.label+".tsv")
	censored := cohort.Censored(g.ids, g.days, g.events)
	if err := writeCensored(path, censored); err != nil {
		return err
	}
	slog.Info("wrote censored records", "path", path, "rows", len(censored))

	if cfg.Plot {
		cp := survival.NewCurvePlotter()
		if err := cp.Add(km, g.label); err != nil {
			return err
		}
		path = filepath.Join(root, "survival"+g.label+".png")
		if err := cp.Save(path); err != nil {
			return err
		}
		slog.Info("wrote survival plot", "path", path)
	}

	return nil
}

// emitComparison runs the logrank test over the concatenated groups and
// writes the comparison table.
func emitComparison(root string, groups []group) error {

	var days []float64
	var events []bool
	var labels []string
	for _, g := range groups {
		days = append(days, g.days...)
		events = append(events, g.events...)
		for range g.ids {
			labels = append(labels, g.label)
		}
	}

	// The only errors reachable here are degenerate populations
	// (e.g. every remaining subject censored, leaving a singular
	// covariance matrix); those skip the comparison, they do not
	// fail the run.
	lr, err := survival.Logrank(days, events, labels)
	if err != nil {
		slog.Warn("skipping group comparison", "reason", err)
		return nil
	}

	path := filepath.Join(root, "logrank_test.tsv")
	if err := writeLogrank(path, lr); err != nil {
		return err
	}
	slog.Info("wrote logrank test", "path", path, "chi2", lr.Chi2, "p", lr.P)

	return nil
}

// fitCurve bridges the resolved per-subject arrays into the estimator's
// data stream and fits the survival function.
func fitCurve(days []float64, events []bool, confLevel float64) (*survival.KaplanMeier, error) {

	status := make([]float64, len(events))
	for i, ev := range events {
		if ev {
			status[i] = 1
		}
	}

	var z [][]interface{}
	z = append(z, []interface{}{days})
	z = append(z, []interface{}{status})
	data := dstream.NewFromArrays(z, []string{"time", "status"})

	return survival.NewKaplanMeier(data, "time", "status").ConfLevel(confLevel).Done()
}
