// Package report renders the comparison document: genome-scan and SNP
// association plots as PNGs, and a Markdown narrative with the inline
// numeric comparisons.
package report

import (
	"bytes"
	"os"

	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/yassato/Paper-Rqtl2/markermap"
	"github.com/yassato/Paper-Rqtl2/scan"
	"github.com/yassato/Paper-Rqtl2/snps"
)

// GenomeScanPlot renders one genome scan as LOD against cumulative physical
// position, with a tick per chromosome and an optional threshold line.
func GenomeScanPlot(path, title string, r *scan.Result, m *markermap.Map, threshold float64) error {
	offsets, total := m.Offsets()

	xs := make([]float64, len(r.LOD))
	for i := range r.LOD {
		xs[i] = offsets[r.Chr[i]] + r.Mbp[i]
	}

	ticks := []chart.Tick{{Value: 0, Label: ""}}
	for _, cm := range m.Chroms {
		if n := len(cm.Markers); n > 0 {
			mid := offsets[cm.Chr] + cm.Markers[n-1].Mbp/2
			ticks = append(ticks, chart.Tick{Value: mid, Label: cm.Chr})
		}
	}
	ticks = append(ticks, chart.Tick{Value: total, Label: ""})

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    title,
			XValues: xs,
			YValues: r.LOD,
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				StrokeWidth: 1.2,
			},
		},
	}

	if threshold > 0 {
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{0, total},
			YValues: []float64{threshold, threshold},
			Style: chart.Style{
				StrokeColor:     chart.ColorRed,
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1024,
		Height: 320,
		XAxis: chart.XAxis{
			Name:  "Chromosome",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "LOD",
		},
		Series: series,
	}

	return renderPNG(path, graph)
}

// SNPScanPlot renders a SNP association window as a scatter of LOD against
// physical position.
func SNPScanPlot(path, title, chr string, r *snps.Result) error {
	graph := chart.Chart{
		Title:  title,
		Width:  1024,
		Height: 320,
		XAxis: chart.XAxis{
			Name: "Chr " + chr + " position (Mbp)",
		},
		YAxis: chart.YAxis{
			Name: "LOD",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    title,
				XValues: r.Mbp,
				YValues: r.LOD,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    2,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}

	return renderPNG(path, graph)
}

func renderPNG(path string, graph chart.Chart) error {
	buf := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buf); err != nil {
		return pfx.Err(err)
	}

	fd, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer fd.Close()

	if _, err := buf.WriteTo(fd); err != nil {
		return pfx.Err(err)
	}

	return nil
}
