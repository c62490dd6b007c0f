// Package pheno loads the Gatti et al. (2014) phenotype table and shapes it
// into the covariate matrix and phenotype vector the genome scan expects.
package pheno

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"

	doqtl2 "github.com/yassato/Paper-Rqtl2"
)

// Record is one mouse: its ID, sex, pre-infection white blood cell count and
// neutrophil count.
type Record struct {
	SampleID string  `csv:"Sample"`
	Sex      string  `csv:"Sex"`
	WBC      float64 `csv:"WBC"`
	NEUT     float64 `csv:"NEUT"`
}

// Table is the loaded phenotype/covariate table, in file order. File order is
// load-bearing: the alignment check compares it against the probability
// arrays row for row.
type Table struct {
	Records []Record
}

// Load reads the phenotype CSV. Comma- and tab-delimited files both work.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := doqtl2.DetermineDelimiter(bytes.NewReader(raw))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true
		return r
	})

	records := []Record{}
	if err := gocsv.UnmarshalBytes(raw, &records); err != nil {
		return nil, pfx.Err(err)
	}

	t := &Table{Records: records}

	return t, t.validate()
}

func (t *Table) validate() error {
	if len(t.Records) == 0 {
		return pfx.Err(fmt.Errorf("phenotype table is empty"))
	}

	seen := make(map[string]bool, len(t.Records))
	for i, r := range t.Records {
		switch {
		case r.SampleID == "":
			return pfx.Err(fmt.Errorf("row %d has no sample ID", i))
		case seen[r.SampleID]:
			return pfx.Err(fmt.Errorf("duplicate sample ID %q", r.SampleID))
		}
		seen[r.SampleID] = true

		sex := strings.ToUpper(r.Sex)
		if sex != "F" && sex != "M" {
			return pfx.Err(fmt.Errorf("sample %s: sex %q is neither F nor M", r.SampleID, r.Sex))
		}

		if r.WBC <= 0 {
			return pfx.Err(fmt.Errorf("sample %s: WBC %v cannot be log-transformed", r.SampleID, r.WBC))
		}
		if r.NEUT <= 0 {
			return pfx.Err(fmt.Errorf("sample %s: NEUT %v cannot be log-transformed", r.SampleID, r.NEUT))
		}
	}

	return nil
}

// SampleIDs returns the IDs in file order.
func (t *Table) SampleIDs() []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.SampleID
	}

	return out
}

// Covariates builds the additive covariate matrix used by every scan: one
// row per mouse, column 0 a male indicator (0/1), column 1 the log10 white
// blood cell count. The scan supplies its own intercept-equivalent columns.
func (t *Table) Covariates() *mat.Dense {
	x := mat.NewDense(len(t.Records), 2, nil)
	for i, r := range t.Records {
		if strings.ToUpper(r.Sex) == "M" {
			x.Set(i, 0, 1)
		}
		x.Set(i, 1, math.Log10(r.WBC))
	}

	return x
}

// Phenotype returns the log10 neutrophil count, one value per mouse, in the
// same row order as Covariates.
func (t *Table) Phenotype() []float64 {
	y := make([]float64, len(t.Records))
	for i, r := range t.Records {
		y[i] = math.Log10(r.NEUT)
	}

	return y
}

// CheckAlignment asserts that the probability source's sample rows are the
// table's rows, in the same order. Scans must not run if this fails.
func (t *Table) CheckAlignment(probSamples []string) error {
	return pfx.Err(doqtl2.CheckSampleOrder(probSamples, t.SampleIDs()))
}
