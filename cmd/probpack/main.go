// probpack converts flat CSV dumps of founder genotype probabilities and
// marker maps into the gob objects scancompare consumes. The probability CSV
// is wide: a sample column, a founder column, then one column per marker.
package main

import (
	"flag"
	"log"

	"github.com/carbocation/pfx"

	doqtl2 "github.com/yassato/Paper-Rqtl2"
	_ "github.com/yassato/Paper-Rqtl2/buildinfoprint"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

func main() {
	var (
		probsCSV string
		mapCSV   string
		split    bool
		outProbs string
		outMap   string
	)

	flag.StringVar(&probsCSV, "probs", "", "Wide CSV of probabilities: sample, founder, then one column per marker.")
	flag.StringVar(&mapCSV, "map", "", "CSV marker table with marker, chr, cM, and Mbp columns.")
	flag.BoolVar(&split, "split", false, "Write per-chromosome arrays (qtl2 layout) instead of one genome-wide block.")
	flag.StringVar(&outProbs, "oprobs", "", "Output gob path for the probability object.")
	flag.StringVar(&outMap, "omap", "", "Output gob path for the marker map.")
	flag.Parse()

	if mapCSV == "" || outMap == "" {
		flag.PrintDefaults()
		log.Fatalln("map and omap are required; probs/oprobs are required unless only converting a map")
	}

	m, err := loadMapCSV(doqtl2.ExpandHome(mapCSV))
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	log.Printf("Read %d markers on %d chromosomes\n", m.TotalMarkers(), len(m.Chroms))

	if err := m.Save(doqtl2.ExpandHome(outMap)); err != nil {
		log.Fatalln(pfx.Err(err))
	}
	log.Println("Wrote", outMap)

	if probsCSV == "" {
		return
	}
	if outProbs == "" {
		log.Fatalln("oprobs is required when probs is given")
	}

	genome, err := loadProbsCSV(doqtl2.ExpandHome(probsCSV))
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	ns, nf, nm := genome.Dims()
	log.Printf("Read probabilities for %d samples x %d founders x %d markers\n", ns, nf, nm)

	if split {
		probs, err := genome.Split(m)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		if err := probs.Save(doqtl2.ExpandHome(outProbs)); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	} else {
		if err := genome.Save(doqtl2.ExpandHome(outProbs)); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}

	log.Println("Wrote", outProbs)
}

func loadMapCSV(path string) (*markermap.Map, error) {
	rows, err := readMarkerTable(path)
	if err != nil {
		return nil, err
	}

	return markermap.FromTable(rows)
}
