package markermap

import (
	"bufio"
	"encoding/gob"
	"os"

	"github.com/carbocation/pfx"
)

// Save writes the map as a gob object, the binary interchange format used by
// the pipeline for everything that is not a plain CSV.
func (m *Map) Save(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer fd.Close()

	fp := bufio.NewWriter(fd)
	if err := gob.NewEncoder(fp).Encode(m); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(fp.Flush())
}

// Load reads a gob-encoded map written by Save (or by probpack).
func Load(path string) (*Map, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer fd.Close()

	m := &Map{}
	if err := gob.NewDecoder(bufio.NewReader(fd)).Decode(m); err != nil {
		return nil, pfx.Err(err)
	}
	m.rebuildIndex()

	return m, nil
}
