// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package mdscmd

import (
	"github.com/alexeid/phylo-mds/mds"
	"github.com/js-arias/blind"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// plotCoords saves the projection as a scatter plot.
// Points are colored by the position of the tree
// in the sample,
// with the iridescent scheme of Paul Tol,
// so a poorly mixed run shows
// as a color gradient across tree space.
func plotCoords(pr *mds.Projection) error {
	p := plot.New()
	p.X.Label.Text = "axis 1"
	p.Y.Label.Text = "axis 2"

	xys := make(plotter.XYs, len(pr.Points))
	for i, pt := range pr.Points {
		xys[i].X = pt.X
		xys[i].Y = pt.Y
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	n := len(pr.Points)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		v := 0.5
		if n > 1 {
			v = float64(i) / float64(n-1)
		}
		return draw.GlyphStyle{
			Color:  blind.Sequential(blind.Iridescent, v),
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	return p.Save(6*vg.Inch, 6*vg.Inch, plotFile)
}
