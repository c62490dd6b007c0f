// Package kinship estimates genetic relatedness between Diversity Outbred
// mice from their founder genotype probabilities, producing the matrices the
// linear mixed model uses to absorb population structure.
package kinship

import (
	"fmt"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"

	"github.com/yassato/Paper-Rqtl2/genoprob"
)

// Matrix is a sample-indexed relatedness matrix. SymDense keeps it symmetric
// by construction.
type Matrix struct {
	Samples []string
	K       *mat.SymDense
}

// Overall computes the genome-wide kinship: the founder-probability inner
// product between each pair of mice, averaged over all markers of all
// chromosomes.
func Overall(p *genoprob.Probs) (*Matrix, error) {
	return accumulate(p, "")
}

// LOCO computes one kinship matrix per chromosome, each built from all
// markers except that chromosome's. Scanning chromosome c against the LOCO
// matrix for c avoids absorbing the very QTL being tested.
func LOCO(p *genoprob.Probs) (map[string]*Matrix, error) {
	out := make(map[string]*Matrix, len(p.Chroms))
	for _, chr := range p.Chroms {
		m, err := accumulate(p, chr)
		if err != nil {
			return nil, err
		}
		out[chr] = m
	}

	return out, nil
}

// accumulate sums the per-chromosome probability cross products, skipping
// omitChr when set, then scales by the marker count.
func accumulate(p *genoprob.Probs, omitChr string) (*Matrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	samples := p.SampleIDs()
	ns := len(samples)

	var acc mat.Dense
	markers := 0
	for _, chr := range p.Chroms {
		if chr == omitChr {
			continue
		}

		a := p.Arrays[chr]
		_, nf, nm := a.Dims()

		// One row per sample, founder-by-marker columns; the cross
		// product sums p_if * p_jf over this chromosome's markers.
		flat := mat.NewDense(ns, nf*nm, nil)
		for s := 0; s < ns; s++ {
			for f := 0; f < nf; f++ {
				for m := 0; m < nm; m++ {
					flat.Set(s, f*nm+m, a.At(s, f, m))
				}
			}
		}

		var cross mat.Dense
		cross.Mul(flat, flat.T())
		if acc.IsEmpty() {
			acc.CloneFrom(&cross)
		} else {
			acc.Add(&acc, &cross)
		}

		markers += nm
	}

	if markers == 0 {
		return nil, pfx.Err(fmt.Errorf("no markers left to build kinship (omitted chr %q)", omitChr))
	}

	k := mat.NewSymDense(ns, nil)
	for i := 0; i < ns; i++ {
		for j := i; j < ns; j++ {
			k.SetSym(i, j, acc.At(i, j)/float64(markers))
		}
	}

	return &Matrix{Samples: samples, K: k}, nil
}

// Dim returns the matrix order.
func (m *Matrix) Dim() int {
	return m.K.Symmetric()
}
