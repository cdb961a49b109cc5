package survival

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CurvePlotter draws one or more fitted survival functions as step
// functions on a common set of axes.
type CurvePlotter struct {
	plt *plot.Plot

	lines  []*plotter.Line
	labels []string

	width  vg.Length
	height vg.Length
}

// NewCurvePlotter returns a default CurvePlotter.
func NewCurvePlotter() *CurvePlotter {

	cp := &CurvePlotter{
		plt:    plot.New(),
		width:  4,
		height: 4,
	}

	cp.plt.X.Label.Text = "Time"
	cp.plt.Y.Label.Text = "Proportion surviving"
	cp.plt.Y.Min = 0
	cp.plt.Y.Max = 1

	return cp
}

// Width sets the width of the plot in inches.
func (cp *CurvePlotter) Width(w float64) *CurvePlotter {
	cp.width = vg.Length(w)
	return cp
}

// Height sets the height of the plot in inches.
func (cp *CurvePlotter) Height(h float64) *CurvePlotter {
	cp.height = vg.Length(h)
	return cp
}

// Add plots a fitted survival function, using the given label in the
// legend when it is not empty.
func (cp *CurvePlotter) Add(km *KaplanMeier, label string) error {

	ti := km.Time()
	pr := km.SurvProb()

	pts := make(plotter.XYs, 2*len(ti)+1)

	j := 0
	pts[j].X = 0
	pts[j].Y = 1
	j++

	for i := range ti {
		pts[j].X = ti[i]
		pts[j].Y = pts[j-1].Y
		j++
		pts[j].X = ti[i]
		pts[j].Y = pr[i]
		j++
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(len(cp.lines))

	cp.lines = append(cp.lines, line)
	cp.labels = append(cp.labels, label)

	cp.plt.Add(line)
	if label != "" {
		cp.plt.Legend.Add(label, line)
		cp.plt.Legend.Top = false
		cp.plt.Legend.Left = true
	}

	return nil
}

// Save writes the plot to the given file, with the format inferred from
// the file extension.
func (cp *CurvePlotter) Save(fname string) error {
	return cp.plt.Save(cp.width*vg.Inch, cp.height*vg.Inch, fname)
}
