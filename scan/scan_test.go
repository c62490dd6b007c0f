package scan

import (
	"math"
	"testing"

	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/kinship"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

const nSamples = 12

// noise is a fixed jitter so regressions never fit exactly.
var noise = []float64{0.013, -0.021, 0.004, 0.017, -0.009, 0.002, -0.014, 0.019, -0.006, 0.011, -0.018, 0.008}

func sampleNames() []string {
	return []string{"S01", "S02", "S03", "S04", "S05", "S06", "S07", "S08", "S09", "S10", "S11", "S12"}
}

// carrierOf returns 1 for the 6 mice assigned founder B.
func carrierOf(s int) float64 {
	if s%2 == 1 {
		return 1
	}

	return 0
}

// testProbs builds two chromosomes of 2-founder probabilities. Marker c1m2
// is informative (each mouse carries one founder with certainty); everything
// else is a flat 0.5/0.5 and carries no signal.
func testProbs() *genoprob.Probs {
	founders := []string{"A", "B"}
	samples := sampleNames()

	flat := func(chr string, markers []string) *genoprob.Array {
		a := genoprob.NewArray(chr, samples, founders, markers)
		for s := 0; s < nSamples; s++ {
			for m := range markers {
				a.Set(s, 0, m, 0.5)
				a.Set(s, 1, m, 0.5)
			}
		}
		return a
	}

	chr1 := flat("1", []string{"c1m1", "c1m2", "c1m3"})
	for s := 0; s < nSamples; s++ {
		b := carrierOf(s)
		chr1.Set(s, 0, 1, 1-b)
		chr1.Set(s, 1, 1, b)
	}

	return &genoprob.Probs{
		Chroms: []string{"1", "2"},
		Arrays: map[string]*genoprob.Array{
			"1": chr1,
			"2": flat("2", []string{"c2m1", "c2m2"}),
		},
	}
}

func testMap(t *testing.T) *markermap.Map {
	t.Helper()

	m, err := markermap.FromTable([]markermap.Marker{
		{Name: "c1m1", Chr: "1", CM: 0, Mbp: 5},
		{Name: "c1m2", Chr: "1", CM: 20, Mbp: 42},
		{Name: "c1m3", Chr: "1", CM: 40, Mbp: 90},
		{Name: "c2m1", Chr: "2", CM: 0, Mbp: 8},
		{Name: "c2m2", Chr: "2", CM: 15, Mbp: 33},
	})
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func testPhenotype() []float64 {
	y := make([]float64, nSamples)
	for s := 0; s < nSamples; s++ {
		y[s] = 1.0*carrierOf(s) + noise[s]
	}

	return y
}

func TestScan1FindsSignal(t *testing.T) {
	probs := testProbs()
	res, err := Scan1(probs, testMap(t), testPhenotype(), nil, Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.LOD) != 5 {
		t.Fatalf("expected 5 markers, got %d", len(res.LOD))
	}

	for i, want := range []string{"c1m1", "c1m2", "c1m3", "c2m1", "c2m2"} {
		if res.Marker[i] != want {
			t.Errorf("marker %d: expected %s, got %s", i, want, res.Marker[i])
		}
	}

	causal, ok := res.LODAt("c1m2")
	if !ok {
		t.Fatal("causal marker missing from the result")
	}
	if causal < 3 {
		t.Errorf("causal LOD too small: %f", causal)
	}

	for i, name := range res.Marker {
		if res.LOD[i] < 0 {
			t.Errorf("negative LOD at %s", name)
		}
		if name != "c1m2" && res.LOD[i] >= causal {
			t.Errorf("%s (LOD %f) should not reach the causal marker's %f", name, res.LOD[i], causal)
		}
	}

	peak := res.Max()
	if peak.Marker != "c1m2" || peak.Chr != "1" || peak.Mbp != 42 {
		t.Errorf("unexpected peak: %+v", peak)
	}
}

func TestScan1WithKinship(t *testing.T) {
	probs := testProbs()

	k, err := kinship.Overall(probs)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Scan1(probs, testMap(t), testPhenotype(), nil, Options{Kinship: k, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.LOD) != 5 {
		t.Fatalf("expected 5 markers, got %d", len(res.LOD))
	}

	for i, name := range res.Marker {
		if math.IsNaN(res.LOD[i]) || math.IsInf(res.LOD[i], 0) || res.LOD[i] < 0 {
			t.Errorf("bad LOD %f at %s", res.LOD[i], name)
		}
	}
}

func TestScan1WithLOCO(t *testing.T) {
	probs := testProbs()

	loco, err := kinship.LOCO(probs)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Scan1(probs, testMap(t), testPhenotype(), nil, Options{LOCO: loco})
	if err != nil {
		t.Fatal(err)
	}

	if peak := res.Max(); peak.Marker != "c1m2" {
		t.Errorf("expected the causal marker to stay on top, got %+v", peak)
	}
}

func TestModelFittedHeritabilityInRange(t *testing.T) {
	probs := testProbs()

	k, err := kinship.Overall(probs)
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewModel(testPhenotype(), nil, k)
	if err != nil {
		t.Fatal(err)
	}

	if m.Hsq < 0 || m.Hsq >= 1 {
		t.Errorf("heritability out of range: %f", m.Hsq)
	}
}

func TestNewModelRejectsBadShapes(t *testing.T) {
	if _, err := NewModel(nil, nil, nil); err == nil {
		t.Error("expected an error for an empty phenotype")
	}

	probs := testProbs()
	k, err := kinship.Overall(probs)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewModel([]float64{1, 2, 3}, nil, k); err == nil {
		t.Error("expected an error for a kinship/phenotype size mismatch")
	}
}

func TestScan1RejectsMapMismatch(t *testing.T) {
	m, err := markermap.FromTable([]markermap.Marker{
		{Name: "c1m1", Chr: "1", CM: 0, Mbp: 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Scan1(testProbs(), m, testPhenotype(), nil, Options{}); err == nil {
		t.Error("expected an error for a probability/map marker count mismatch")
	}
}

func TestPeaks(t *testing.T) {
	r := &Result{
		Chr:    []string{"1", "1", "2", "2"},
		Marker: []string{"a", "b", "c", "d"},
		CM:     []float64{0, 10, 0, 10},
		Mbp:    []float64{1, 20, 2, 25},
		LOD:    []float64{2, 7, 4, 3},
	}

	peaks := r.Peaks(3.5)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if peaks[0].Marker != "b" || peaks[1].Marker != "c" {
		t.Errorf("unexpected peaks: %+v", peaks)
	}
}
