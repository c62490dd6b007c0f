package report

import (
	"fmt"
	"io"
	"math"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/yassato/Paper-Rqtl2/scan"
	"github.com/yassato/Paper-Rqtl2/snps"
)

// Comparison is everything the rendered document needs for one phenotype.
type Comparison struct {
	Phenotype string

	Label1, Label2 string
	Scan1, Scan2   *scan.Result
	Snps1, Snps2   *snps.Result

	// SNP window
	WindowChr   string
	WindowStart float64
	WindowEnd   float64

	Threshold float64

	GenomePlot1 string
	GenomePlot2 string
	SNPPlot1    string
	SNPPlot2    string
}

// CommonLOD pairs the LOD scores of markers present in both scans, in the
// first scan's order. The two probability sources were genotyped on the same
// array but can disagree on which markers survived filtering.
func CommonLOD(a, b *scan.Result) (x, y []float64) {
	inB := make(map[string]float64, len(b.Marker))
	for i, name := range b.Marker {
		inB[name] = b.LOD[i]
	}

	for i, name := range a.Marker {
		if lod, ok := inB[name]; ok {
			x = append(x, a.LOD[i])
			y = append(y, lod)
		}
	}

	return x, y
}

// Render writes the Markdown narrative comparing the two scans.
func Render(w io.Writer, c *Comparison) error {
	p1, p2 := c.Scan1.Max(), c.Scan2.Max()

	x, y := CommonLOD(c.Scan1, c.Scan2)
	if len(x) < 2 {
		return pfx.Err(fmt.Errorf("fewer than 2 shared markers between the two scans"))
	}

	r := stat.Correlation(x, y, nil)

	diffs := make([]float64, len(x))
	for i := range x {
		diffs[i] = math.Abs(x[i] - y[i])
	}
	medDiff, err := stats.Median(diffs)
	if err != nil {
		return pfx.Err(err)
	}
	maxDiff, err := stats.Max(diffs)
	if err != nil {
		return pfx.Err(err)
	}

	fmt.Fprintf(w, "# Genome scans for %s: %s vs %s genotype probabilities\n\n", c.Phenotype, c.Label1, c.Label2)

	fmt.Fprintf(w, "Reanalysis of the Gatti et al. (2014) Diversity Outbred cohort, comparing\n")
	fmt.Fprintf(w, "linear-mixed-model genome scans computed from two independently derived sets\n")
	fmt.Fprintf(w, "of founder genotype probabilities for the same mice and the same phenotype\n")
	fmt.Fprintf(w, "(%s, with sex and log10 white blood cell count as additive covariates).\n\n", c.Phenotype)

	fmt.Fprintf(w, "## Genome scans\n\n")
	fmt.Fprintf(w, "![%s genome scan](%s)\n\n", c.Label1, c.GenomePlot1)
	fmt.Fprintf(w, "![%s genome scan](%s)\n\n", c.Label2, c.GenomePlot2)

	fmt.Fprintf(w, "The %s scan peaks at %s (chr %s, %.2f Mbp) with LOD %.2f; ", c.Label1, p1.Marker, p1.Chr, p1.Mbp, p1.LOD)
	fmt.Fprintf(w, "the %s scan peaks at %s (chr %s, %.2f Mbp) with LOD %.2f.\n", c.Label2, p2.Marker, p2.Chr, p2.Mbp, p2.LOD)
	fmt.Fprintf(w, "Across the %d markers shared by both scans the LOD scores correlate at r = %.4f,\n", len(x), r)
	fmt.Fprintf(w, "with a median absolute difference of %.3f LOD and a maximum of %.3f.\n\n", medDiff, maxDiff)

	if peaks := c.Scan1.Peaks(c.Threshold); len(peaks) > 0 {
		fmt.Fprintf(w, "Chromosomes exceeding LOD %.1f in the %s scan:\n\n", c.Threshold, c.Label1)
		fmt.Fprintf(w, "| Chr | Marker | Position (Mbp) | LOD (%s) | LOD (%s) |\n", c.Label1, c.Label2)
		fmt.Fprintf(w, "|---|---|---|---|---|\n")
		for _, p := range peaks {
			other := "-"
			if lod, ok := c.Scan2.LODAt(p.Marker); ok {
				other = fmt.Sprintf("%.2f", lod)
			}
			fmt.Fprintf(w, "| %s | %s | %.2f | %.2f | %s |\n", p.Chr, p.Marker, p.Mbp, p.LOD, other)
		}
		fmt.Fprintln(w)
	}

	if c.Snps1 != nil && c.Snps2 != nil {
		fmt.Fprintf(w, "## SNP association, chr %s: %.1f-%.1f Mbp\n\n", c.WindowChr, c.WindowStart, c.WindowEnd)
		fmt.Fprintf(w, "![%s SNP association](%s)\n\n", c.Label1, c.SNPPlot1)
		fmt.Fprintf(w, "![%s SNP association](%s)\n\n", c.Label2, c.SNPPlot2)

		i1, i2 := c.Snps1.Max(), c.Snps2.Max()
		fmt.Fprintf(w, "Top variant with %s probabilities: %s at %.3f Mbp (LOD %.2f); ",
			c.Label1, c.Snps1.ID[i1], c.Snps1.Mbp[i1], c.Snps1.LOD[i1])
		fmt.Fprintf(w, "with %s probabilities: %s at %.3f Mbp (LOD %.2f).\n",
			c.Label2, c.Snps2.ID[i2], c.Snps2.Mbp[i2], c.Snps2.LOD[i2])
	}

	return nil
}
