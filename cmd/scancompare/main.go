// scancompare reruns the Gatti et al. (2014) neutrophil genome scan twice,
// once per genotype-probability source (DOQTL-derived and qtl2-derived), and
// renders a Markdown report comparing the two, with genome-scan and SNP
// association plots.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"

	doqtl2 "github.com/yassato/Paper-Rqtl2"
	_ "github.com/yassato/Paper-Rqtl2/buildinfoprint"
	"github.com/yassato/Paper-Rqtl2/pheno"
	"github.com/yassato/Paper-Rqtl2/report"
	"github.com/yassato/Paper-Rqtl2/snps"
)

func main() {
	var (
		phenoPath  string
		doqtlProbs string
		doqtlMap   string
		qtl2Probs  string
		qtl2Map    string
		snpDB      string

		windowChr   string
		windowStart float64
		windowEnd   float64

		threshold float64
		loco      bool
		cores     int
		outDir    string
	)

	flag.StringVar(&phenoPath, "pheno", "", "Phenotype CSV with Sample, Sex, WBC, and NEUT columns.")
	flag.StringVar(&doqtlProbs, "doqtlprobs", "", "Gob file with the DOQTL-derived genome-wide probability array.")
	flag.StringVar(&doqtlMap, "doqtlmap", "", "Gob file with the marker map matching -doqtlprobs.")
	flag.StringVar(&qtl2Probs, "qtl2probs", "", "Gob file with the qtl2-derived per-chromosome probability arrays.")
	flag.StringVar(&qtl2Map, "qtl2map", "", "Gob file with the marker map matching -qtl2probs.")
	flag.StringVar(&snpDB, "snpdb", "", "SQLite variant database for the SNP association step. Optional.")
	flag.StringVar(&windowChr, "chr", "1", "Chromosome of the SNP association window.")
	flag.Float64Var(&windowStart, "start", 125, "Window start (Mbp).")
	flag.Float64Var(&windowEnd, "end", 135, "Window end (Mbp).")
	flag.Float64Var(&threshold, "threshold", 6, "LOD threshold for the peak table and plot line.")
	flag.BoolVar(&loco, "loco", true, "Use leave-one-chromosome-out kinship instead of a single overall matrix.")
	flag.IntVar(&cores, "cores", 0, "Chromosomes to scan concurrently (0 = all CPUs).")
	flag.StringVar(&outDir, "out", "out", "Output directory for report.md and the PNG plots.")
	flag.Parse()

	if phenoPath == "" || doqtlProbs == "" || doqtlMap == "" || qtl2Probs == "" || qtl2Map == "" {
		flag.PrintDefaults()
		log.Fatalln("pheno, doqtlprobs, doqtlmap, qtl2probs, and qtl2map are all required")
	}

	outDir = doqtl2.ExpandHome(outDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(pfx.Err(err))
	}

	log.Println("Loading phenotype table from", phenoPath)
	table, err := pheno.Load(doqtl2.ExpandHome(phenoPath))
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	log.Printf("Loaded %d mice\n", len(table.Records))

	src1, err := loadDOQTLSource(doqtl2.ExpandHome(doqtlProbs), doqtl2.ExpandHome(doqtlMap), table, loco, cores)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	src2, err := loadQTL2Source(doqtl2.ExpandHome(qtl2Probs), doqtl2.ExpandHome(qtl2Map), table, loco, cores)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	if f1, f2 := src1.Founders(), src2.Founders(); len(f1) != len(f2) {
		log.Fatalf("founder dimension mismatch: %s has %d founders, %s has %d\n", src1.Label, len(f1), src2.Label, len(f2))
	}

	comparison := &report.Comparison{
		Phenotype: "log10 neutrophil count",
		Label1:    "DOQTL",
		Label2:    "qtl2",
		Scan1:     src1.Scan,
		Scan2:     src2.Scan,

		WindowChr:   windowChr,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Threshold:   threshold,

		GenomePlot1: "scan_doqtl.png",
		GenomePlot2: "scan_qtl2.png",
		SNPPlot1:    "snps_doqtl.png",
		SNPPlot2:    "snps_qtl2.png",
	}

	if snpDB != "" {
		db, err := snps.OpenDB(doqtl2.ExpandHome(snpDB))
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		defer db.Close()

		variants, err := db.Query(windowChr, windowStart, windowEnd)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		log.Printf("Queried %d variants on chr %s between %.1f and %.1f Mbp\n", len(variants), windowChr, windowStart, windowEnd)

		comparison.Snps1, err = src1.SNPScan(table, variants, windowChr)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		comparison.Snps2, err = src2.SNPScan(table, variants, windowChr)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}

	log.Println("Rendering plots")
	if err := report.GenomeScanPlot(filepath.Join(outDir, comparison.GenomePlot1), "DOQTL probabilities", src1.Scan, src1.Map, threshold); err != nil {
		log.Fatalln(pfx.Err(err))
	}
	if err := report.GenomeScanPlot(filepath.Join(outDir, comparison.GenomePlot2), "qtl2 probabilities", src2.Scan, src2.Map, threshold); err != nil {
		log.Fatalln(pfx.Err(err))
	}
	if comparison.Snps1 != nil {
		if err := report.SNPScanPlot(filepath.Join(outDir, comparison.SNPPlot1), "DOQTL probabilities", windowChr, comparison.Snps1); err != nil {
			log.Fatalln(pfx.Err(err))
		}
		if err := report.SNPScanPlot(filepath.Join(outDir, comparison.SNPPlot2), "qtl2 probabilities", windowChr, comparison.Snps2); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}

	reportPath := filepath.Join(outDir, "report.md")
	fd, err := os.Create(reportPath)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	defer fd.Close()

	if err := report.Render(fd, comparison); err != nil {
		log.Fatalln(pfx.Err(err))
	}

	log.Println("Wrote", reportPath)
}
