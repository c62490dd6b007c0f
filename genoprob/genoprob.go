// Package genoprob holds founder genotype-probability arrays for the 8-way
// Diversity Outbred cross: per sample, per founder haplotype, per marker
// probability mass, stored per chromosome in the layout the scan consumes.
package genoprob

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Founders are the one-letter codes of the 8 DO founder strains
// (A/J, C57BL/6J, 129S1/SvImJ, NOD/ShiLtJ, NZO/HlLtJ, CAST/EiJ, PWK/PhJ,
// WSB/EiJ). Every probability array must carry its founder axis in this
// order: SNP strain distribution patterns address founders by bit position,
// so a reordered axis would silently scramble every allele dosage.
var Founders = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// Array holds the probabilities for one chromosome as a dense block of shape
// samples x founders x markers, row-major in that order.
type Array struct {
	Chr      string
	Samples  []string
	Founders []string
	Markers  []string
	P        []float64
}

// NewArray allocates a zeroed array with the given axes.
func NewArray(chr string, samples, founders, markers []string) *Array {
	return &Array{
		Chr:      chr,
		Samples:  samples,
		Founders: founders,
		Markers:  markers,
		P:        make([]float64, len(samples)*len(founders)*len(markers)),
	}
}

// Dims returns (samples, founders, markers).
func (a *Array) Dims() (int, int, int) {
	return len(a.Samples), len(a.Founders), len(a.Markers)
}

func (a *Array) offset(sample, founder, marker int) int {
	nf, nm := len(a.Founders), len(a.Markers)

	return sample*nf*nm + founder*nm + marker
}

// At returns the probability that sample carries founder's haplotype at
// marker. Indexes are positional.
func (a *Array) At(sample, founder, marker int) float64 {
	return a.P[a.offset(sample, founder, marker)]
}

// Set assigns one probability cell.
func (a *Array) Set(sample, founder, marker int, v float64) {
	a.P[a.offset(sample, founder, marker)] = v
}

// FounderColumn copies the per-sample probabilities of one founder at one
// marker into dst (allocating if nil) and returns it. This is the design
// column the per-marker regression consumes.
func (a *Array) FounderColumn(founder, marker int, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(a.Samples))
	}

	for s := range a.Samples {
		dst[s] = a.At(s, founder, marker)
	}

	return dst
}

// Validate checks the flat block matches the axis lengths and that the
// founder axis follows the canonical order.
func (a *Array) Validate() error {
	ns, nf, nm := a.Dims()
	if want := ns * nf * nm; len(a.P) != want {
		return pfx.Err(fmt.Errorf("chr %s: probability block has %d values, want %d (%d samples x %d founders x %d markers)",
			a.Chr, len(a.P), want, ns, nf, nm))
	}

	if nf > len(Founders) {
		return pfx.Err(fmt.Errorf("chr %s: %d founder codes exceed the %d-founder cross", a.Chr, nf, len(Founders)))
	}
	for i, f := range a.Founders {
		if f != Founders[i] {
			return pfx.Err(fmt.Errorf("chr %s: founder axis %v is not in canonical %v order", a.Chr, a.Founders, Founders[:nf]))
		}
	}

	return nil
}

// Probs is one probability source: per-chromosome arrays in genome order,
// all sharing the same sample axis.
type Probs struct {
	Chroms []string
	Arrays map[string]*Array
}

// SampleIDs returns the shared sample axis (taken from the first
// chromosome; Validate enforces that all chromosomes agree).
func (p *Probs) SampleIDs() []string {
	if len(p.Chroms) == 0 {
		return nil
	}

	return p.Arrays[p.Chroms[0]].Samples
}

// TotalMarkers counts markers across chromosomes.
func (p *Probs) TotalMarkers() int {
	n := 0
	for _, chr := range p.Chroms {
		n += len(p.Arrays[chr].Markers)
	}

	return n
}

// Validate checks every chromosome block and the cross-chromosome sample
// axis agreement.
func (p *Probs) Validate() error {
	if len(p.Chroms) == 0 {
		return pfx.Err(fmt.Errorf("probability object has no chromosomes"))
	}

	ref := p.Arrays[p.Chroms[0]].Samples
	for _, chr := range p.Chroms {
		a, ok := p.Arrays[chr]
		if !ok {
			return pfx.Err(fmt.Errorf("chromosome %s listed but has no array", chr))
		}

		if err := a.Validate(); err != nil {
			return err
		}

		if len(a.Samples) != len(ref) {
			return pfx.Err(fmt.Errorf("chr %s has %d samples, chr %s has %d", chr, len(a.Samples), p.Chroms[0], len(ref)))
		}
		for i := range ref {
			if a.Samples[i] != ref[i] {
				return pfx.Err(fmt.Errorf("chr %s sample axis diverges at row %d (%q vs %q)", chr, i, a.Samples[i], ref[i]))
			}
		}
	}

	return nil
}
