package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	apperrors "rentstat/internal/errors"
)

// writePlots renders every diagnostic PNG and returns the file names.
func (w *Writer) writePlots(in Inputs) ([]string, error) {
	type job struct {
		name   string
		render func(string) error
	}

	jobs := []job{
		{"scree.png", func(path string) error { return w.screePlot(path, in) }},
		{"cumulative_variance.png", func(path string) error { return w.cumulativePlot(path, in) }},
		{"elbow.png", func(path string) error { return w.elbowPlot(path, in) }},
		{"silhouette.png", func(path string) error { return w.silhouettePlot(path, in) }},
		{"cluster_scatter.png", func(path string) error { return w.scatterPlot(path, in) }},
	}

	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		path := filepath.Join(w.plotsDir, j.name)
		if err := j.render(path); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeReportWrite, "report",
				fmt.Sprintf("render %s", j.name), err)
		}
		names = append(names, j.name)
	}
	return names, nil
}

func (w *Writer) screePlot(path string, in Inputs) error {
	p := plot.New()
	p.Title.Text = "Scree Plot"
	p.X.Label.Text = "Component"
	p.Y.Label.Text = "Eigenvalue"

	pts := make(plotter.XYs, len(in.PCA.Eigenvalues))
	for i, v := range in.PCA.Eigenvalues {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	p.Add(plotter.NewGrid(), line, points)

	// Kaiser criterion reference at eigenvalue 1.
	kaiser := plotter.NewFunction(func(x float64) float64 { return 1 })
	kaiser.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(kaiser)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func (w *Writer) cumulativePlot(path string, in Inputs) error {
	p := plot.New()
	p.Title.Text = "Cumulative Explained Variance"
	p.X.Label.Text = "Component"
	p.Y.Label.Text = "Cumulative share"
	p.Y.Max = 1.05

	pts := make(plotter.XYs, len(in.PCA.Cumulative))
	for i, v := range in.PCA.Cumulative {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	p.Add(plotter.NewGrid(), line, points)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func (w *Writer) elbowPlot(path string, in Inputs) error {
	p := plot.New()
	p.Title.Text = "Elbow Plot"
	p.X.Label.Text = "k"
	p.Y.Label.Text = "Within-cluster sum of squares"

	pts := make(plotter.XYs, len(in.Cluster.Sweep))
	for i, sp := range in.Cluster.Sweep {
		pts[i].X = float64(sp.K)
		pts[i].Y = sp.WSS
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	p.Add(plotter.NewGrid(), line, points)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func (w *Writer) silhouettePlot(path string, in Inputs) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Silhouette Widths (k=%d, mean=%.3f)",
		in.Cluster.K, in.Cluster.Silhouette.Mean)
	p.X.Label.Text = "Observation (grouped by cluster)"
	p.Y.Label.Text = "Silhouette width"

	// Group observations by cluster, widest first within each group.
	ordered := make([]float64, 0, len(in.Cluster.Silhouette.PerObservation))
	for c := 0; c < in.Cluster.K; c++ {
		var group []float64
		for i, l := range in.Cluster.Labels {
			if l == c {
				group = append(group, in.Cluster.Silhouette.PerObservation[i])
			}
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[j] > group[i] {
					group[i], group[j] = group[j], group[i]
				}
			}
		}
		ordered = append(ordered, group...)
	}

	bars, err := plotter.NewBarChart(plotter.Values(ordered), vg.Points(3))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func (w *Writer) scatterPlot(path string, in Inputs) error {
	p := plot.New()
	p.Title.Text = "Observations in PC1/PC2 by Cluster"
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	for c := 0; c < in.Cluster.K; c++ {
		var pts plotter.XYs
		for i, l := range in.Cluster.Labels {
			if l != c {
				continue
			}
			pts = append(pts, plotter.XY{
				X: in.PCA.Scores.At(i, 0),
				Y: in.PCA.Scores.At(i, 1),
			})
		}
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = plotutil.Color(c)
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("cluster %d", c+1), scatter)
	}

	// City labels next to the points.
	labels := plotter.XYLabels{}
	for i, id := range in.Table.IDs {
		labels.XYs = append(labels.XYs, plotter.XY{
			X: in.PCA.Scores.At(i, 0),
			Y: in.PCA.Scores.At(i, 1),
		})
		labels.Labels = append(labels.Labels, id)
	}
	labelPlot, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), labelPlot)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
