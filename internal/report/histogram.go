package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/blokk/internal/partition"
)

// maxBars caps the histogram width; the remaining partitions are summed
// into a final "other" bar.
const maxBars = 40

func partitionLabel(parts []int) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, "+")
}

// PartitionHistogram returns a bar chart of how many samples each feasible
// partition contributes.
func PartitionHistogram(target int, counts []partition.PartitionCount) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no feasible partitions of %d", target)
	}

	values := make(plotter.Values, 0, min(len(counts), maxBars+1))
	labels := make([]string, 0, cap(values))
	total := 0
	for i, pc := range counts {
		total += pc.Samples
		if i < maxBars {
			values = append(values, float64(pc.Samples))
			labels = append(labels, partitionLabel(pc.Parts))
			continue
		}
		if i == maxBars {
			values = append(values, 0)
			labels = append(labels, "other")
		}
		values[maxBars] += float64(pc.Samples)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Samples per partition of %d (total %d)", target, total)
	p.Y.Label.Text = "samples"
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -1

	bars, err := plotter.NewBarChart(values, vg.Points(8))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

// WritePartitionPNG renders PartitionHistogram as a PNG image.
func WritePartitionPNG(w io.Writer, target int, counts []partition.PartitionCount) error {
	p, err := PartitionHistogram(target, counts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
