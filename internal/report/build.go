// Package report renders builds and run statistics: an interactive 3D
// scatter page, a partition histogram and an STL mesh.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/geometry"
)

// Item is one placed piece of a build.
type Item struct {
	ID    int
	Name  string
	Color string
	Shape geometry.Shape
}

// Items pairs each shape of build with the catalog piece it places.
func Items(cat *catalog.Catalog, ids []int, build []geometry.Shape) ([]Item, error) {
	if len(ids) != len(build) {
		return nil, fmt.Errorf("build has %d shapes for %d pieces", len(build), len(ids))
	}
	items := make([]Item, len(ids))
	for i, id := range ids {
		p, err := cat.Piece(id)
		if err != nil {
			return nil, err
		}
		items[i] = Item{ID: id, Name: p.Name, Color: p.Color, Shape: build[i]}
	}
	return items, nil
}

var palette = []string{
	"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de",
	"#3ba272", "#fc8452", "#9a60b4", "#ea7ccc",
}

// cssColor returns c when a browser can parse it, else a palette entry.
func cssColor(c string, i int) string {
	if strings.HasPrefix(c, "#") || strings.HasPrefix(c, "rgb") {
		return c
	}
	return palette[i%len(palette)]
}

// BuildChart returns a 3D scatter with one series per piece, one point per
// voxel, in a cubeSize box.
func BuildChart(title string, items []Item, cubeSize int) *charts.Scatter3D {
	chart := charts.NewScatter3D()
	axisMax := max(cubeSize-1, 0)
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("cube=%d pieces=%d", cubeSize, len(items))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Min: 0, Max: axisMax}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Min: 0, Max: axisMax}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Min: 0, Max: axisMax}),
		charts.WithGrid3DOpts(opts.Grid3D{BoxWidth: 100, BoxHeight: 100, BoxDepth: 100}),
	)

	for i, it := range items {
		color := cssColor(it.Color, i)
		data := make([]opts.Chart3DData, 0, it.Shape.Len())
		for _, v := range it.Shape.Voxels() {
			data = append(data, opts.Chart3DData{
				Name:      it.Name,
				Value:     []interface{}{v.X, v.Y, v.Z},
				ItemStyle: &opts.ItemStyle{Color: color},
			})
		}
		name := it.Name
		if name == "" {
			name = fmt.Sprintf("#%d", it.ID)
		}
		chart.AddSeries(name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}
	return chart
}

// WriteBuildHTML renders BuildChart as a standalone HTML page.
func WriteBuildHTML(w io.Writer, title string, items []Item, cubeSize int) error {
	return BuildChart(title, items, cubeSize).Render(w)
}
