package snps

import (
	"math"
	"testing"

	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

func testArray() *genoprob.Array {
	samples := []string{"S01", "S02", "S03", "S04", "S05", "S06", "S07", "S08", "S09", "S10", "S11", "S12"}
	founders := []string{"A", "B", "C"}

	a := genoprob.NewArray("1", samples, founders, []string{"m1", "m2", "m3"})
	for s := range samples {
		f := s % 3
		for m := 0; m < 3; m++ {
			a.Set(s, f, m, 1)
		}
	}

	return a
}

func testChrMap(t *testing.T) *markermap.Map {
	t.Helper()

	m, err := markermap.FromTable([]markermap.Marker{
		{Name: "m1", Chr: "1", CM: 0, Mbp: 10},
		{Name: "m2", Chr: "1", CM: 10, Mbp: 20},
		{Name: "m3", Chr: "1", CM: 20, Mbp: 30},
	})
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestDosageFollowsSDP(t *testing.T) {
	a := testArray()

	// SDP 0b011: founders A and B carry the alternate allele
	d := Dosage(a, 0, 0b011, nil)

	for s := 0; s < 12; s++ {
		want := 0.0
		if s%3 == 0 || s%3 == 1 {
			want = 1
		}
		if math.Abs(d[s]-want) > 1e-12 {
			t.Errorf("sample %d: expected dosage %f, got %f", s, want, d[s])
		}
	}
}

func TestDosageIsSumOfFounderProbs(t *testing.T) {
	a := genoprob.NewArray("1", []string{"S1"}, []string{"A", "B", "C"}, []string{"m1"})
	a.Set(0, 0, 0, 0.2)
	a.Set(0, 1, 0, 0.3)
	a.Set(0, 2, 0, 0.5)

	// founders A and C carry the alternate allele
	d := Dosage(a, 0, 0b101, nil)
	if math.Abs(d[0]-0.7) > 1e-12 {
		t.Errorf("expected dosage 0.7, got %f", d[0])
	}
}

func TestNearestMarker(t *testing.T) {
	cm := testChrMap(t).ByChr("1")

	cases := []struct {
		mbp  float64
		want int
	}{
		{5, 0},
		{10, 0},
		{14, 0},
		{16, 1},
		{29, 2},
		{99, 2},
	}

	for _, c := range cases {
		if got := nearestMarker(cm, c.mbp); got != c.want {
			t.Errorf("nearestMarker(%.0f): expected %d, got %d", c.mbp, c.want, got)
		}
	}
}

func TestScanFindsCausalVariant(t *testing.T) {
	a := testArray()
	probs := &genoprob.Probs{Chroms: []string{"1"}, Arrays: map[string]*genoprob.Array{"1": a}}

	noise := []float64{0.013, -0.021, 0.004, 0.017, -0.009, 0.002, -0.014, 0.019, -0.006, 0.011, -0.018, 0.008}

	// phenotype driven by carrying founder A's allele
	y := make([]float64, 12)
	for s := 0; s < 12; s++ {
		if s%3 == 0 {
			y[s] = 1
		}
		y[s] += noise[s]
	}

	variants := []Variant{
		{ID: "rs_causal", Chr: "1", Mbp: 19.5, Alleles: "A|G", SDP: 0b001},
		{ID: "rs_null", Chr: "1", Mbp: 21.0, Alleles: "C|T", SDP: 0b010},
	}

	res, err := Scan(probs, testChrMap(t), variants, y, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.LOD) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(res.LOD))
	}

	if res.ID[res.Max()] != "rs_causal" {
		t.Errorf("expected rs_causal on top, got %s (LODs %v)", res.ID[res.Max()], res.LOD)
	}
}

func TestScanRejectsNonCanonicalFounders(t *testing.T) {
	// a reordered founder axis would make every SDP bit address the wrong
	// founder's probabilities, so the scan must refuse to run on one
	a := genoprob.NewArray("1", []string{"S1"}, []string{"B", "A"}, []string{"m1"})
	a.Set(0, 1, 0, 1) // the mouse carries founder A with certainty

	probs := &genoprob.Probs{Chroms: []string{"1"}, Arrays: map[string]*genoprob.Array{"1": a}}
	variants := []Variant{{ID: "rs1", Chr: "1", Mbp: 10, SDP: 0b001}}

	m, err := markermap.FromTable([]markermap.Marker{{Name: "m1", Chr: "1", CM: 0, Mbp: 10}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Scan(probs, m, variants, []float64{0.5}, nil, nil); err == nil {
		t.Error("expected an error for a non-canonical founder axis")
	}
}

func TestScanRejectsCrossChromosomeWindow(t *testing.T) {
	a := testArray()
	probs := &genoprob.Probs{Chroms: []string{"1"}, Arrays: map[string]*genoprob.Array{"1": a}}

	variants := []Variant{
		{ID: "v1", Chr: "1", Mbp: 15, SDP: 1},
		{ID: "v2", Chr: "2", Mbp: 15, SDP: 1},
	}

	if _, err := Scan(probs, testChrMap(t), variants, make([]float64, 12), nil, nil); err == nil {
		t.Error("expected an error for a window spanning chromosomes")
	}
}

func TestScanRejectsEmptyWindow(t *testing.T) {
	a := testArray()
	probs := &genoprob.Probs{Chroms: []string{"1"}, Arrays: map[string]*genoprob.Array{"1": a}}

	if _, err := Scan(probs, testChrMap(t), nil, make([]float64, 12), nil, nil); err == nil {
		t.Error("expected an error for an empty variant window")
	}
}
