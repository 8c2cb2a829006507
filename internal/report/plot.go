package report

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// RenderPlot writes the validation scatter as a PNG: professional values on
// x, volunteer values on y, the fitted regression line, and a dashed 1:1
// reference. Axis limits span both series jointly with a 10% margin so over-
// and under-reporting read directly as distance from the 1:1 line.
func RenderPlot(path string, pairs model.MatchResult, fit *model.RegressionSummary, characteristic string) error {
	if len(pairs) == 0 {
		return eris.New("report: no pairs to plot")
	}
	if fit == nil {
		return eris.New("report: no regression fit to plot")
	}

	pts := make(plotter.XYs, len(pairs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range pairs {
		pts[i].X = p.Professional.Value
		pts[i].Y = p.Volunteer.Value
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}
	lo *= 0.9
	hi *= 1.1

	pl := plot.New()
	pl.Title.Text = "Blue Thumb Virtual Triangulation\nVolunteer vs Professional " + characteristic + " Measurements"
	pl.X.Label.Text = axisLabel("Professional", characteristic, pairs[0].Professional.Unit)
	pl.Y.Label.Text = axisLabel("Volunteer", characteristic, pairs[0].Volunteer.Unit)
	pl.X.Min, pl.X.Max = lo, hi
	pl.Y.Min, pl.Y.Max = lo, hi
	pl.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return eris.Wrap(err, "report: build scatter")
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 0x46, G: 0x82, B: 0xB4, A: 0xFF} // steel blue
	scatter.GlyphStyle.Radius = vg.Points(3)

	reg := plotter.NewFunction(func(x float64) float64 { return fit.Slope*x + fit.Intercept })
	reg.Color = color.RGBA{R: 0xFF, A: 0xFF}
	reg.Width = vg.Points(2)

	oneToOne := plotter.NewFunction(func(x float64) float64 { return x })
	oneToOne.Color = color.Black
	oneToOne.Width = vg.Points(1.5)
	oneToOne.Dashes = []vg.Length{vg.Points(5), vg.Points(4)}

	pl.Add(scatter, reg, oneToOne)
	pl.Legend.Add(fmt.Sprintf("Regression (R^2 = %.3f, n = %d)", fit.RSquared, fit.N), reg)
	pl.Legend.Add("1:1 Line", oneToOne)
	pl.Legend.Top = true
	pl.Legend.Left = true

	canvas := vgimg.NewWith(vgimg.UseWH(10*vg.Inch, 8*vg.Inch), vgimg.UseDPI(300))
	pl.Draw(draw.New(canvas))

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create plot file")
	}
	defer file.Close() //nolint:errcheck

	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(file); err != nil {
		return eris.Wrap(err, "report: encode plot png")
	}

	return nil
}

func axisLabel(population, characteristic, unit string) string {
	if unit == "" {
		return population + " " + characteristic
	}
	return fmt.Sprintf("%s %s (%s)", population, characteristic, unit)
}
