// Package plot renders training diagnostics with gonum/plot.
package plot

import (
	"math"

	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size of the saved image.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// LossPoints evaluates the MSE of every estimate in h. Points stop at the
// first non-finite loss, which a diverging run eventually produces.
func LossPoints(h *optimize.History, X mat.Matrix, y mat.Vector) plotter.XYs {
	losses := h.Losses(X, y)
	pts := make(plotter.XYs, 0, len(losses))
	for i, loss := range losses {
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			break
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: loss})
	}
	return pts
}

// NewLossPlot builds a loss-per-iteration plot. The y axis is logarithmic
// when every loss is positive.
func NewLossPlot(title string, pts plotter.XYs) (*gonumplot.Plot, error) {
	if len(pts) == 0 {
		return nil, errors.NewModelError("NewLossPlot", "no finite losses to plot", errors.ErrEmptyData)
	}

	p := gonumplot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "MSE"
	p.Add(plotter.NewGrid())

	positive := true
	for _, pt := range pts {
		if pt.Y <= 0 {
			positive = false
			break
		}
	}
	if positive {
		p.Y.Scale = gonumplot.LogScale{}
		p.Y.Tick.Marker = gonumplot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build loss line")
	}
	p.Add(line)
	return p, nil
}

// LossCurve renders the MSE of every estimate in h against iteration and
// saves it to path. The image format follows the extension (.png, .svg,
// .pdf ...).
func LossCurve(h *optimize.History, X mat.Matrix, y mat.Vector, path string) error {
	if h == nil || h.Len() == 0 {
		return errors.NewModelError("LossCurve", "empty history", errors.ErrEmptyData)
	}

	p, err := NewLossPlot("Gradient descent loss", LossPoints(h, X, y))
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "failed to save loss curve to %s", path)
	}
	return nil
}
