// Package scan runs linear-mixed-model genome scans over founder genotype
// probabilities, producing one LOD score per marker.
package scan

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"

	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/kinship"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

// Options configures one genome scan. Kinship selects a single genome-wide
// mixed model; LOCO overrides it per chromosome when set. With neither, the
// scan is a plain Haley-Knott regression. Workers caps the chromosomes
// scanned concurrently (0 means NumCPU).
type Options struct {
	Kinship *kinship.Matrix
	LOCO    map[string]*kinship.Matrix
	Workers int
}

// Result is a genome scan in genome order: parallel slices, one entry per
// marker.
type Result struct {
	Chr    []string
	Marker []string
	CM     []float64
	Mbp    []float64
	LOD    []float64
}

// Peak is the best marker of one chromosome.
type Peak struct {
	Chr    string
	Marker string
	CM     float64
	Mbp    float64
	LOD    float64
}

// Scan1 scans every marker of every chromosome for association with y, with
// the additive covariates in covar. The per-marker test compares the null
// model (intercept + covariates) against the full model in which the
// intercept is replaced by the 8 founder-dosage columns.
func Scan1(p *genoprob.Probs, m *markermap.Map, y []float64, covar *mat.Dense, opt Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(y) != len(p.SampleIDs()) {
		return nil, pfx.Err(fmt.Errorf("phenotype has %d values, probabilities have %d samples", len(y), len(p.SampleIDs())))
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	perChr := make(map[string]*Result, len(p.Chroms))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	sem := make(chan struct{}, workers)

	for _, chr := range p.Chroms {
		cm := m.ByChr(chr)
		if cm == nil {
			return nil, pfx.Err(fmt.Errorf("chromosome %s has probabilities but no marker map", chr))
		}
		if len(cm.Markers) != len(p.Arrays[chr].Markers) {
			return nil, pfx.Err(fmt.Errorf("chromosome %s: %d markers in map, %d in probabilities", chr, len(cm.Markers), len(p.Arrays[chr].Markers)))
		}

		k := opt.Kinship
		if opt.LOCO != nil {
			k = opt.LOCO[chr]
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(chr string, cm *markermap.ChrMap, k *kinship.Matrix) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := scanChr(p.Arrays[chr], cm, y, covar, k)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			perChr[chr] = res
		}(chr, cm, k)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	out := &Result{}
	for _, chr := range p.Chroms {
		r := perChr[chr]
		out.Chr = append(out.Chr, r.Chr...)
		out.Marker = append(out.Marker, r.Marker...)
		out.CM = append(out.CM, r.CM...)
		out.Mbp = append(out.Mbp, r.Mbp...)
		out.LOD = append(out.LOD, r.LOD...)
	}

	return out, nil
}

func scanChr(a *genoprob.Array, cm *markermap.ChrMap, y []float64, covar *mat.Dense, k *kinship.Matrix) (*Result, error) {
	model, err := NewModel(y, covar, k)
	if err != nil {
		return nil, err
	}

	ns, nf, nm := a.Dims()

	covCols := 0
	if covar != nil {
		_, covCols = covar.Dims()
	}

	res := &Result{
		Chr:    make([]string, nm),
		Marker: make([]string, nm),
		CM:     make([]float64, nm),
		Mbp:    make([]float64, nm),
		LOD:    make([]float64, nm),
	}

	alt := mat.NewDense(ns, nf+covCols, nil)
	if covar != nil {
		for i := 0; i < ns; i++ {
			for j := 0; j < covCols; j++ {
				alt.Set(i, nf+j, covar.At(i, j))
			}
		}
	}

	col := make([]float64, ns)
	for mi := 0; mi < nm; mi++ {
		for f := 0; f < nf; f++ {
			a.FounderColumn(f, mi, col)
			for s := 0; s < ns; s++ {
				alt.Set(s, f, col[s])
			}
		}

		lod, err := model.LOD(alt)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("chr %s marker %s: %w", a.Chr, a.Markers[mi], err))
		}

		res.Chr[mi] = a.Chr
		res.Marker[mi] = a.Markers[mi]
		res.CM[mi] = cm.Markers[mi].CM
		res.Mbp[mi] = cm.Markers[mi].Mbp
		res.LOD[mi] = lod
	}

	return res, nil
}

// Max returns the best marker genome-wide.
func (r *Result) Max() Peak {
	best := Peak{}
	for i := range r.LOD {
		if r.LOD[i] >= best.LOD {
			best = Peak{Chr: r.Chr[i], Marker: r.Marker[i], CM: r.CM[i], Mbp: r.Mbp[i], LOD: r.LOD[i]}
		}
	}

	return best
}

// Peaks returns the best marker of each chromosome whose LOD clears the
// threshold, in genome order.
func (r *Result) Peaks(threshold float64) []Peak {
	var out []Peak

	for i := range r.LOD {
		if len(out) > 0 && out[len(out)-1].Chr == r.Chr[i] {
			if r.LOD[i] > out[len(out)-1].LOD {
				out[len(out)-1] = Peak{Chr: r.Chr[i], Marker: r.Marker[i], CM: r.CM[i], Mbp: r.Mbp[i], LOD: r.LOD[i]}
			}
			continue
		}
		out = append(out, Peak{Chr: r.Chr[i], Marker: r.Marker[i], CM: r.CM[i], Mbp: r.Mbp[i], LOD: r.LOD[i]})
	}

	kept := out[:0]
	for _, p := range out {
		if p.LOD >= threshold {
			kept = append(kept, p)
		}
	}

	return kept
}

// LODAt returns the LOD at a named marker, or false if the marker is absent.
func (r *Result) LODAt(marker string) (float64, bool) {
	for i, name := range r.Marker {
		if name == marker {
			return r.LOD[i], true
		}
	}

	return 0, false
}
