// Package survival supports nonparametric analysis of right censored
// duration data: Kaplan-Meier estimation of the survival function with
// log-log confidence bands, the K-sample logrank test, and step-function
// plots of fitted curves.
package survival

import (
	"fmt"
	"math"
	"sort"

	"github.com/kshedden/dstream/dstream"
	"gonum.org/v1/gonum/stat/distuv"
)

// KaplanMeier uses the product-limit method of Kaplan and Meier to
// estimate the survival distribution based on (possibly) right censored
// data.  The caller constructs the value with NewKaplanMeier, optionally
// adjusts the confidence level, then calls Done to fit.
type KaplanMeier struct {

	// The data used to perform the estimation.
	data dstream.Dstream

	// The name of the variable containing the minimum of the
	// event time and censoring time.  The underlying data must
	// have float64 type.
	timeVar string

	// The name of a variable containing the status indicator,
	// which is 1 if the event occurred at the time given by
	// timeVar, and 0 if the subject was censored at that time.
	statusVar string

	// Coverage probability of the pointwise confidence band.
	confLevel float64

	// Distinct observed times (event or censoring), sorted.
	times []float64

	// Number of events at each time in times.
	nEvents []float64

	// Number of censorings at each time in times.
	nCensored []float64

	// Number of subjects at risk just before each time in times.
	nRisk []float64

	// The estimated survival function evaluated at each time in times.
	survProb []float64

	// The standard errors for the estimates in survProb
	// (Greenwood's formula).
	survProbSE []float64

	// Pointwise confidence bounds on the log(-log) scale.  Where
	// the survival probability is exactly 0 or 1 the transform is
	// undefined and the bound is NaN.
	ciLower []float64
	ciUpper []float64

	events map[float64]float64
	total  map[float64]float64

	timepos   int
	statuspos int
}

// NewKaplanMeier creates a new value for fitting a survival function to
// the given data.  The confidence level defaults to 0.95.
func NewKaplanMeier(data dstream.Dstream, timevar, statusvar string) *KaplanMeier {

	return &KaplanMeier{
		data:      data,
		timeVar:   timevar,
		statusVar: statusvar,
		confLevel: 0.95,
	}
}

// ConfLevel sets the coverage probability of the pointwise confidence
// band, e.g. 0.95 for a 95% band.
func (km *KaplanMeier) ConfLevel(p float64) *KaplanMeier {
	km.confLevel = p
	return km
}

// Time returns the distinct observed times, in increasing order.  Every
// time at which an event or a censoring occurred is present.
func (km *KaplanMeier) Time() []float64 {
	return km.times
}

// NumRisk returns the number of subjects at risk just before each time
// point returned by Time.
func (km *KaplanMeier) NumRisk() []float64 {
	return km.nRisk
}

// NumEvents returns the number of events at each time point returned by
// Time.
func (km *KaplanMeier) NumEvents() []float64 {
	return km.nEvents
}

// NumCensored returns the number of censorings at each time point
// returned by Time.
func (km *KaplanMeier) NumCensored() []float64 {
	return km.nCensored
}

// SurvProb returns the estimated survival probabilities at the points
// returned by Time.
func (km *KaplanMeier) SurvProb() []float64 {
	return km.survProb
}

// SurvProbSE returns the standard errors of the estimated survival
// probabilities at the points returned by Time.
func (km *KaplanMeier) SurvProbSE() []float64 {
	return km.survProbSE
}

// ConfIntLower returns the lower confidence bound at the points returned
// by Time.
func (km *KaplanMeier) ConfIntLower() []float64 {
	return km.ciLower
}

// ConfIntUpper returns the upper confidence bound at the points returned
// by Time.
func (km *KaplanMeier) ConfIntUpper() []float64 {
	return km.ciUpper
}

func (km *KaplanMeier) init() error {

	km.events = make(map[float64]float64)
	km.total = make(map[float64]float64)

	km.data.Reset()

	km.timepos = -1
	km.statuspos = -1

	for k, na := range km.data.Names() {
		switch na {
		case km.timeVar:
			km.timepos = k
		case km.statusVar:
			km.statuspos = k
		}
	}

	if km.timepos == -1 {
		return fmt.Errorf("survival: time variable '%s' not found", km.timeVar)
	}
	if km.statuspos == -1 {
		return fmt.Errorf("survival: status variable '%s' not found", km.statusVar)
	}
	if km.confLevel <= 0 || km.confLevel >= 1 {
		return fmt.Errorf("survival: confidence level %v is not in (0, 1)", km.confLevel)
	}

	return nil
}

func (km *KaplanMeier) scanData() {

	for km.data.Next() {

		time := km.data.GetPos(km.timepos).([]float64)
		status := km.data.GetPos(km.statuspos).([]float64)

		for i, t := range time {
			if status[i] == 1 {
				km.events[t]++
			}
			km.total[t]++
		}
	}
}

func rollback(x []float64) {
	var z float64
	for i := len(x) - 1; i >= 0; i-- {
		z += x[i]
		x[i] = z
	}
}

// eventstats tabulates the event count, censoring count and risk set
// size at every distinct observed time.  Tied observations at a time
// are aggregated: the risk set shrinks by the events plus censorings at
// that time, so the count at each position reflects the risk set just
// before the time.
func (km *KaplanMeier) eventstats() {

	km.times = make([]float64, len(km.total))
	var i int
	for t := range km.total {
		km.times[i] = t
		i++
	}
	sort.Float64s(km.times)

	km.nEvents = make([]float64, len(km.times))
	km.nCensored = make([]float64, len(km.times))
	km.nRisk = make([]float64, len(km.times))
	for i, t := range km.times {
		km.nEvents[i] = km.events[t]
		km.nCensored[i] = km.total[t] - km.events[t]
		km.nRisk[i] = km.total[t]
	}
	rollback(km.nRisk)
}

func (km *KaplanMeier) fit() {

	km.survProb = make([]float64, len(km.times))
	x := float64(1)
	for i := range km.times {
		x *= 1 - km.nEvents[i]/km.nRisk[i]
		km.survProb[i] = x
	}

	// Greenwood's formula.  Times without events contribute nothing
	// to the accumulated variance.
	km.survProbSE = make([]float64, len(km.times))
	x = 0
	for i := range km.times {
		d := km.nEvents[i]
		n := km.nRisk[i]
		if d > 0 {
			x += d / (n * (n - d))
		}
		km.survProbSE[i] = math.Sqrt(x) * km.survProb[i]
	}
}

// bands computes the pointwise confidence band using the log(-log)
// transform, which keeps the bounds inside [0, 1].
func (km *KaplanMeier) bands() {

	z := distuv.UnitNormal.Quantile(1 - (1-km.confLevel)/2)

	km.ciLower = make([]float64, len(km.times))
	km.ciUpper = make([]float64, len(km.times))

	for i := range km.times {
		s := km.survProb[i]
		if s <= 0 || s >= 1 {
			km.ciLower[i] = math.NaN()
			km.ciUpper[i] = math.NaN()
			continue
		}

		se := km.survProbSE[i] / math.Abs(s*math.Log(s))
		q := math.Exp(z * se)
		km.ciLower[i] = math.Pow(s, q)
		km.ciUpper[i] = math.Pow(s, 1/q)
	}
}

// Done fits the survival function.  It returns an error if the time or
// status variable is missing from the data, or if the confidence level
// is invalid.
func (km *KaplanMeier) Done() (*KaplanMeier, error) {
	if err := km.init(); err != nil {
		return nil, err
	}
	km.scanData()
	km.eventstats()
	km.fit()
	km.bands()
	return km, nil
}
