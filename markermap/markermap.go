// Package markermap represents the genetic (cM) and physical (Mbp) positions
// of the genotyping array markers, grouped per chromosome in genome order.
package markermap

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Marker is one row of the flat marker table shipped with a probability set.
type Marker struct {
	Name string  `csv:"marker"`
	Chr  string  `csv:"chr"`
	CM   float64 `csv:"cM"`
	Mbp  float64 `csv:"Mbp"`
}

// ChrMap holds the ordered markers of a single chromosome.
type ChrMap struct {
	Chr     string
	Markers []Marker
}

// Map is a full genome map: chromosomes in genome order (1..19, X for the
// mouse), each with its markers ordered by position.
type Map struct {
	Chroms []*ChrMap

	byChr map[string]*ChrMap
}

// FromTable groups a flat marker table into per-chromosome maps. Chromosomes
// keep their order of first appearance; markers within a chromosome must
// already be sorted on both position scales, since the SNP window lookup and
// the cM interpolation binary-search on the physical axis while the scans
// walk the genetic one.
func FromTable(rows []Marker) (*Map, error) {
	m := &Map{byChr: map[string]*ChrMap{}}

	for _, row := range rows {
		cm, ok := m.byChr[row.Chr]
		if !ok {
			cm = &ChrMap{Chr: row.Chr}
			m.byChr[row.Chr] = cm
			m.Chroms = append(m.Chroms, cm)
		}

		if n := len(cm.Markers); n > 0 {
			prev := cm.Markers[n-1]
			if row.CM < prev.CM {
				return nil, pfx.Err(fmt.Errorf("marker %s (chr %s, %.3f cM) is out of order after %s (%.3f cM)",
					row.Name, row.Chr, row.CM, prev.Name, prev.CM))
			}
			if row.Mbp < prev.Mbp {
				return nil, pfx.Err(fmt.Errorf("marker %s (chr %s, %.3f Mbp) is out of order after %s (%.3f Mbp)",
					row.Name, row.Chr, row.Mbp, prev.Name, prev.Mbp))
			}
		}

		cm.Markers = append(cm.Markers, row)
	}

	if len(m.Chroms) == 0 {
		return nil, pfx.Err(fmt.Errorf("empty marker table"))
	}

	return m, nil
}

// ByChr returns the map for one chromosome, or nil if absent.
func (m *Map) ByChr(chr string) *ChrMap {
	if m.byChr == nil {
		m.rebuildIndex()
	}

	return m.byChr[chr]
}

// rebuildIndex restores the chromosome lookup after gob decoding, which only
// round-trips the exported fields.
func (m *Map) rebuildIndex() {
	m.byChr = make(map[string]*ChrMap, len(m.Chroms))
	for _, cm := range m.Chroms {
		m.byChr[cm.Chr] = cm
	}
}

// TotalMarkers counts markers across all chromosomes.
func (m *Map) TotalMarkers() int {
	n := 0
	for _, cm := range m.Chroms {
		n += len(cm.Markers)
	}

	return n
}

// Offsets returns, per chromosome, the cumulative physical offset (Mbp) to
// add to a marker's within-chromosome position to place it on a single
// genome-wide x axis, plus the total extent. Used by the report plots.
func (m *Map) Offsets() (map[string]float64, float64) {
	offsets := make(map[string]float64, len(m.Chroms))

	total := 0.0
	for _, cm := range m.Chroms {
		offsets[cm.Chr] = total
		if n := len(cm.Markers); n > 0 {
			total += cm.Markers[n-1].Mbp
		}
	}

	return offsets, total
}
