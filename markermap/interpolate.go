package markermap

import (
	"fmt"
	"sort"

	"github.com/carbocation/pfx"
)

// InterpolateCM estimates the genetic position of an arbitrary physical
// position by linear interpolation between the flanking markers. Positions
// beyond the chromosome ends clamp to the terminal markers' genetic
// positions. Variant databases only carry physical coordinates, so this is
// how the report places a SNP on the genetic map.
func (m *Map) InterpolateCM(chr string, mbp float64) (float64, error) {
	cm := m.ByChr(chr)
	if cm == nil {
		return 0, pfx.Err(fmt.Errorf("no map for chromosome %s", chr))
	}
	if len(cm.Markers) == 0 {
		return 0, pfx.Err(fmt.Errorf("chromosome %s has no markers", chr))
	}

	i := sort.Search(len(cm.Markers), func(j int) bool {
		return cm.Markers[j].Mbp >= mbp
	})

	switch {
	case i == 0:
		return cm.Markers[0].CM, nil
	case i == len(cm.Markers):
		return cm.Markers[len(cm.Markers)-1].CM, nil
	}

	left, right := cm.Markers[i-1], cm.Markers[i]
	if right.Mbp == left.Mbp {
		return left.CM, nil
	}

	frac := (mbp - left.Mbp) / (right.Mbp - left.Mbp)

	return left.CM + frac*(right.CM-left.CM), nil
}
