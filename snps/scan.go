package snps

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"

	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/kinship"
	"github.com/yassato/Paper-Rqtl2/markermap"
	"github.com/yassato/Paper-Rqtl2/scan"
)

// Result is a SNP association scan over one window: parallel slices, one
// entry per variant.
type Result struct {
	ID  []string
	Mbp []float64
	LOD []float64
}

// Dosage collapses the founder probabilities at one marker into the expected
// alternate-allele dosage per sample: the sum of the probabilities of the
// founders whose SDP bit is set.
func Dosage(a *genoprob.Array, marker int, sdp uint8, dst []float64) []float64 {
	ns, nf, _ := a.Dims()
	if dst == nil {
		dst = make([]float64, ns)
	}

	for s := 0; s < ns; s++ {
		sum := 0.0
		for f := 0; f < nf && f < 8; f++ {
			if sdp&(1<<uint(f)) != 0 {
				sum += a.At(s, f, marker)
			}
		}
		dst[s] = sum
	}

	return dst
}

// nearestMarker returns the index of the map marker closest to mbp. Markers
// are position-sorted, so this is a binary search plus a neighbor check.
func nearestMarker(cm *markermap.ChrMap, mbp float64) int {
	i := sort.Search(len(cm.Markers), func(j int) bool {
		return cm.Markers[j].Mbp >= mbp
	})

	if i == 0 {
		return 0
	}
	if i == len(cm.Markers) {
		return len(cm.Markers) - 1
	}

	if math.Abs(cm.Markers[i].Mbp-mbp) < math.Abs(mbp-cm.Markers[i-1].Mbp) {
		return i
	}

	return i - 1
}

// Scan tests every variant against the phenotype. Each variant borrows the
// founder probabilities of its nearest array marker; the test adds the
// collapsed allele dosage to the null design (intercept + covariates), mixed
// over k when k is non-nil.
func Scan(p *genoprob.Probs, m *markermap.Map, variants []Variant, y []float64, covar *mat.Dense, k *kinship.Matrix) (*Result, error) {
	if len(variants) == 0 {
		return nil, pfx.Err(fmt.Errorf("no variants to scan"))
	}
	// SDP bits address founders positionally, so the founder axis has to be
	// in canonical order before any dosage is collapsed
	if err := p.Validate(); err != nil {
		return nil, err
	}

	chr := variants[0].Chr
	for _, v := range variants {
		if v.Chr != chr {
			return nil, pfx.Err(fmt.Errorf("variant window spans chromosomes %s and %s", chr, v.Chr))
		}
	}

	a, ok := p.Arrays[chr]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("no probabilities for chromosome %s", chr))
	}
	cm := m.ByChr(chr)
	if cm == nil {
		return nil, pfx.Err(fmt.Errorf("no marker map for chromosome %s", chr))
	}
	if len(a.Samples) != len(y) {
		return nil, pfx.Err(fmt.Errorf("phenotype has %d values, probabilities have %d samples", len(y), len(a.Samples)))
	}

	model, err := scan.NewModel(y, covar, k)
	if err != nil {
		return nil, err
	}

	ns := len(y)
	covCols := 0
	if covar != nil {
		_, covCols = covar.Dims()
	}

	// alt design: intercept, covariates, then the dosage column
	alt := mat.NewDense(ns, 2+covCols, nil)
	for i := 0; i < ns; i++ {
		alt.Set(i, 0, 1)
	}
	if covar != nil {
		for i := 0; i < ns; i++ {
			for j := 0; j < covCols; j++ {
				alt.Set(i, 1+j, covar.At(i, j))
			}
		}
	}

	res := &Result{
		ID:  make([]string, len(variants)),
		Mbp: make([]float64, len(variants)),
		LOD: make([]float64, len(variants)),
	}

	dosage := make([]float64, ns)
	for vi, v := range variants {
		Dosage(a, nearestMarker(cm, v.Mbp), v.SDP, dosage)
		for s := 0; s < ns; s++ {
			alt.Set(s, 1+covCols, dosage[s])
		}

		lod, err := model.LOD(alt)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("variant %s: %w", v.ID, err))
		}

		res.ID[vi] = v.ID
		res.Mbp[vi] = v.Mbp
		res.LOD[vi] = lod
	}

	return res, nil
}

// Max returns the index of the top variant.
func (r *Result) Max() int {
	best := 0
	for i := range r.LOD {
		if r.LOD[i] > r.LOD[best] {
			best = i
		}
	}

	return best
}
