package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	doqtl2 "github.com/yassato/Paper-Rqtl2"
	"github.com/yassato/Paper-Rqtl2/genoprob"
	"github.com/yassato/Paper-Rqtl2/markermap"
)

// Columns preceding the per-marker probability columns in the wide CSV.
const (
	colSample = iota
	colFounder
	probsStart
)

// readMarkerTable loads the flat marker table with gocsv, tolerating either
// comma or tab delimiters.
func readMarkerTable(path string) ([]markermap.Marker, error) {
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

	rows := []markermap.Marker{}
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, pfx.Err(err)
	}

	return rows, nil
}

// loadProbsCSV reads the wide probability dump into a genome-wide block. Rows
// arrive grouped by sample (all founders of sample 1, then sample 2, ...);
// the founder axis is taken from the first sample's rows and every later
// sample must repeat it.
func loadProbsCSV(path string) (*genoprob.GenomeArray, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = doqtl2.DetermineDelimiter(bytes.NewReader(raw))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(rows) < 2 {
		return nil, pfx.Err(fmt.Errorf("probability CSV %s has no data rows", path))
	}

	header := rows[0]
	if len(header) <= probsStart {
		return nil, pfx.Err(fmt.Errorf("probability CSV %s has no marker columns", path))
	}
	markers := header[probsStart:]

	var samples, founders []string
	sampleIdx := map[string]int{}
	founderIdx := map[string]int{}

	type parsed struct {
		sample, founder int
		vals            []float64
	}

	var cells []parsed
	for ri, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, pfx.Err(fmt.Errorf("row %d has %d fields, header has %d", ri+2, len(row), len(header)))
		}

		sample, founder := row[colSample], row[colFounder]

		si, ok := sampleIdx[sample]
		if !ok {
			si = len(samples)
			sampleIdx[sample] = si
			samples = append(samples, sample)
		}

		fi, ok := founderIdx[founder]
		if !ok {
			if si != 0 {
				return nil, pfx.Err(fmt.Errorf("row %d: founder %q appears first under sample %q, not the first sample", ri+2, founder, sample))
			}
			fi = len(founders)
			founderIdx[founder] = fi
			founders = append(founders, founder)
		}

		vals := make([]float64, len(markers))
		for ci, raw := range row[probsStart:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("row %d, marker %s: %w", ri+2, markers[ci], err))
			}
			vals[ci] = v
		}

		cells = append(cells, parsed{sample: si, founder: fi, vals: vals})
	}

	nf, nm := len(founders), len(markers)
	if len(cells) != len(samples)*nf {
		return nil, pfx.Err(fmt.Errorf("%d data rows but %d samples x %d founders", len(cells), len(samples), nf))
	}

	for i, f := range founders {
		if i >= len(genoprob.Founders) || f != genoprob.Founders[i] {
			return nil, pfx.Err(fmt.Errorf("founder axis %v must follow the canonical %v order", founders, genoprob.Founders))
		}
	}

	g := &genoprob.GenomeArray{
		Samples:  samples,
		Founders: founders,
		Markers:  markers,
		P:        make([]float64, len(samples)*nf*nm),
	}

	for _, c := range cells {
		base := c.sample*nf*nm + c.founder*nm
		copy(g.P[base:base+nm], c.vals)
	}

	return g, nil
}
