package genoprob

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

// GenomeArray is the DOQTL-style layout: a single genome-wide block of shape
// samples x founders x markers, with no chromosome structure of its own. It
// has to be split against a marker map before the scan can use it.
type GenomeArray struct {
	Samples  []string
	Founders []string
	Markers  []string
	P        []float64
}

// Dims returns (samples, founders, markers).
func (g *GenomeArray) Dims() (int, int, int) {
	return len(g.Samples), len(g.Founders), len(g.Markers)
}

// At returns one probability cell, indexed like Array.At.
func (g *GenomeArray) At(sample, founder, marker int) float64 {
	nf, nm := len(g.Founders), len(g.Markers)

	return g.P[sample*nf*nm+founder*nm+marker]
}

// Split reshapes the genome-wide block into per-chromosome arrays following
// the marker map. Every marker named by the map must exist in the block; the
// map's chromosome and within-chromosome order wins, so this also reorders
// markers if the two sources disagree.
func (g *GenomeArray) Split(m *markermap.Map) (*Probs, error) {
	idx := make(map[string]int, len(g.Markers))
	for i, name := range g.Markers {
		idx[name] = i
	}

	ns, nf := len(g.Samples), len(g.Founders)

	out := &Probs{Arrays: map[string]*Array{}}
	for _, cm := range m.Chroms {
		names := make([]string, len(cm.Markers))
		for i, mk := range cm.Markers {
			names[i] = mk.Name
		}

		a := NewArray(cm.Chr, g.Samples, g.Founders, names)
		for mi, mk := range cm.Markers {
			src, ok := idx[mk.Name]
			if !ok {
				return nil, pfx.Err(fmt.Errorf("marker %s (chr %s) in map but not in probability array", mk.Name, cm.Chr))
			}

			for s := 0; s < ns; s++ {
				for f := 0; f < nf; f++ {
					a.Set(s, f, mi, g.At(s, f, src))
				}
			}
		}

		out.Chroms = append(out.Chroms, cm.Chr)
		out.Arrays[cm.Chr] = a
	}

	return out, out.Validate()
}
