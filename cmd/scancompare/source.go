package main

import (
	"log"

	"github.com/carbocation/pfx"

	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/kinship"
	"github.com/yassato/Paper-Rqtl2/markermap"
	"github.com/yassato/Paper-Rqtl2/pheno"
	"github.com/yassato/Paper-Rqtl2/scan"
	"github.com/yassato/Paper-Rqtl2/snps"
)

// source is one fully scanned probability source: its probabilities, map,
// kinship, and genome scan.
type source struct {
	Label string
	Probs *genoprob.Probs
	Map   *markermap.Map

	Overall *kinship.Matrix
	LOCO    map[string]*kinship.Matrix

	Scan *scan.Result
}

// loadDOQTLSource loads the genome-wide DOQTL block, splits it into
// per-chromosome arrays against its marker map, and scans it.
func loadDOQTLSource(probsPath, mapPath string, table *pheno.Table, loco bool, cores int) (*source, error) {
	log.Println("Loading DOQTL probabilities from", probsPath)

	genome, err := genoprob.LoadGenome(probsPath)
	if err != nil {
		return nil, err
	}

	m, err := markermap.Load(mapPath)
	if err != nil {
		return nil, err
	}

	probs, err := genome.Split(m)
	if err != nil {
		return nil, err
	}

	return scanSource("DOQTL", probs, m, table, loco, cores)
}

// loadQTL2Source loads the already per-chromosome qtl2 arrays and scans them.
func loadQTL2Source(probsPath, mapPath string, table *pheno.Table, loco bool, cores int) (*source, error) {
	log.Println("Loading qtl2 probabilities from", probsPath)

	probs, err := genoprob.Load(probsPath)
	if err != nil {
		return nil, err
	}

	m, err := markermap.Load(mapPath)
	if err != nil {
		return nil, err
	}

	return scanSource("qtl2", probs, m, table, loco, cores)
}

func scanSource(label string, probs *genoprob.Probs, m *markermap.Map, table *pheno.Table, loco bool, cores int) (*source, error) {
	// The one invariant this pipeline enforces itself: probability rows and
	// phenotype rows must be the same mice in the same order. Nothing runs
	// past this point if they are not.
	if err := table.CheckAlignment(probs.SampleIDs()); err != nil {
		return nil, pfx.Err(err)
	}

	src := &source{Label: label, Probs: probs, Map: m}

	opt := scan.Options{Workers: cores}

	var err error
	if loco {
		log.Printf("[%s] computing LOCO kinship (%d chromosomes, %d markers)\n", label, len(probs.Chroms), probs.TotalMarkers())
		if src.LOCO, err = kinship.LOCO(probs); err != nil {
			return nil, err
		}
		opt.LOCO = src.LOCO
	} else {
		log.Printf("[%s] computing overall kinship (%d markers)\n", label, probs.TotalMarkers())
		if src.Overall, err = kinship.Overall(probs); err != nil {
			return nil, err
		}
		opt.Kinship = src.Overall
	}

	log.Printf("[%s] running genome scan\n", label)
	src.Scan, err = scan.Scan1(probs, m, table.Phenotype(), table.Covariates(), opt)
	if err != nil {
		return nil, err
	}

	peak := src.Scan.Max()
	log.Printf("[%s] peak LOD %.2f at %s (chr %s, %.2f Mbp)\n", label, peak.LOD, peak.Marker, peak.Chr, peak.Mbp)

	return src, nil
}

// Founders returns the probability source's founder axis.
func (s *source) Founders() []string {
	return s.Probs.Arrays[s.Probs.Chroms[0]].Founders
}

// SNPScan runs the variant-window association for this source, using the
// kinship matrix that matches the genome scan's configuration.
func (s *source) SNPScan(table *pheno.Table, variants []snps.Variant, chr string) (*snps.Result, error) {
	k := s.Overall
	if s.LOCO != nil {
		k = s.LOCO[chr]
	}

	log.Printf("[%s] running SNP association over %d variants\n", s.Label, len(variants))

	res, err := snps.Scan(s.Probs, s.Map, variants, table.Phenotype(), table.Covariates(), k)
	if err != nil {
		return nil, err
	}

	top := res.Max()
	if cm, err := s.Map.InterpolateCM(chr, res.Mbp[top]); err == nil {
		log.Printf("[%s] top variant %s at %.3f Mbp (~%.2f cM), LOD %.2f\n", s.Label, res.ID[top], res.Mbp[top], cm, res.LOD[top])
	}

	return res, nil
}
