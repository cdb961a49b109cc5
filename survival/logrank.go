package survival

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogrankResult holds the outcome of a K-sample logrank test.
type LogrankResult struct {

	// The chi-square test statistic.
	Chi2 float64

	// The p-value of the test under the null hypothesis that all
	// groups share a common survival distribution.
	P float64

	// Degrees of freedom, one less than the number of groups.
	Df int
}

// Logrank performs the logrank (Mantel-Haenszel) test comparing the
// survival distributions of two or more groups.  time holds the
// observed durations, status is true where the event occurred and false
// where the subject was censored, and label assigns each subject to a
// group.  At each distinct event time the observed event counts per
// group are compared to their expectations under the null of equal
// hazard, and the accumulated differences are combined into a
// chi-square statistic with (number of groups - 1) degrees of freedom.
//
// An error is returned when fewer than two distinct labels are present,
// or when the accumulated covariance matrix is singular (e.g. there are
// no events at all).
func Logrank(time []float64, status []bool, label []string) (LogrankResult, error) {

	if len(status) != len(time) || len(label) != len(time) {
		return LogrankResult{}, fmt.Errorf("survival: logrank arguments have unequal lengths %d, %d, %d",
			len(time), len(status), len(label))
	}

	// Group index by first appearance of the label.
	gix := make(map[string]int)
	var ngroup int
	for _, la := range label {
		if _, ok := gix[la]; !ok {
			gix[la] = ngroup
			ngroup++
		}
	}
	if ngroup < 2 {
		return LogrankResult{}, fmt.Errorf("survival: logrank test requires at least 2 groups, got %d", ngroup)
	}

	// Event counts per group at each distinct event time.
	events := make(map[float64][]float64)
	for i, t := range time {
		if !status[i] {
			continue
		}
		e, ok := events[t]
		if !ok {
			e = make([]float64, ngroup)
			events[t] = e
		}
		e[gix[label[i]]]++
	}

	etimes := make([]float64, 0, len(events))
	for t := range events {
		etimes = append(etimes, t)
	}
	sort.Float64s(etimes)

	// Subjects sorted by time; the risk set at time t is everyone
	// whose observed time is >= t.
	order := make([]int, len(time))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return time[order[i]] < time[order[j]] })

	nrisk := make([]float64, ngroup)
	for i := range label {
		nrisk[gix[label[i]]]++
	}

	// Accumulate observed minus expected events and the covariance
	// of the observed counts for the first ngroup-1 groups.
	df := ngroup - 1
	omE := mat.NewVecDense(df, nil)
	cov := mat.NewDense(df, df, nil)

	var next int
	for _, t := range etimes {

		// Remove subjects who left observation before t.
		for next < len(order) && time[order[next]] < t {
			nrisk[gix[label[order[next]]]]--
			next++
		}

		var n, d float64
		for _, r := range nrisk {
			n += r
		}
		for _, e := range events[t] {
			d += e
		}
		if n <= 1 {
			continue
		}

		for a := 0; a < df; a++ {
			omE.SetVec(a, omE.AtVec(a)+events[t][a]-d*nrisk[a]/n)
			for b := 0; b < df; b++ {
				del := 0.0
				if a == b {
					del = 1
				}
				v := d * (n - d) / (n - 1) * (nrisk[a] / n) * (del - nrisk[b]/n)
				cov.Set(a, b, cov.At(a, b)+v)
			}
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(cov, omE); err != nil {
		return LogrankResult{}, fmt.Errorf("survival: logrank covariance matrix is singular: %v", err)
	}
	chi2 := mat.Dot(omE, &x)

	p := distuv.ChiSquared{K: float64(df)}.Survival(chi2)

	return LogrankResult{Chi2: chi2, P: p, Df: df}, nil
}
