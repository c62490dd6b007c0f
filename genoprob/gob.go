package genoprob

import (
	"bufio"
	"encoding/gob"
	"os"

	"github.com/carbocation/pfx"
)

// Save writes the per-chromosome probability object as gob.
func (p *Probs) Save(path string) error {
	return saveGob(path, p)
}

// Load reads a gob-encoded per-chromosome probability object.
func Load(path string) (*Probs, error) {
	p := &Probs{}
	if err := loadGob(path, p); err != nil {
		return nil, err
	}

	return p, p.Validate()
}

// Save writes the genome-wide (DOQTL-style) block as gob.
func (g *GenomeArray) Save(path string) error {
	return saveGob(path, g)
}

// LoadGenome reads a gob-encoded genome-wide probability block.
func LoadGenome(path string) (*GenomeArray, error) {
	g := &GenomeArray{}
	if err := loadGob(path, g); err != nil {
		return nil, err
	}

	return g, nil
}

func saveGob(path string, v interface{}) error {
	fd, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer fd.Close()

	fp := bufio.NewWriter(fd)
	if err := gob.NewEncoder(fp).Encode(v); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(fp.Flush())
}

func loadGob(path string, v interface{}) error {
	fd, err := os.Open(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer fd.Close()

	return pfx.Err(gob.NewDecoder(bufio.NewReader(fd)).Decode(v))
}
