// Package snps runs SNP association scans: it pulls variants from a local
// SQLite variant database, collapses the 8 founder probabilities down to SNP
// allele dosages through each variant's strain distribution pattern, and
// tests every variant in a window against the phenotype.
package snps

import (
	"database/sql"
	"fmt"

	"github.com/carbocation/pfx"
	_ "github.com/mattn/go-sqlite3"
)

// Variant is one row of the variant database. SDP is the strain distribution
// pattern: bit f (0 = founder A ... 7 = founder H) is set when that founder
// carries the alternate allele.
type Variant struct {
	ID      string
	Chr     string
	Mbp     float64
	Alleles string
	SDP     uint8
}

// DB is a read-only handle on a variant database in the snps(snp_id, chr,
// pos_Mbp, alleles, sdp) shape.
type DB struct {
	db *sql.DB
}

// OpenDB opens the SQLite variant database at path, read-only so that a
// mistyped path fails here instead of leaving behind a fresh empty database.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, pfx.Err(err)
	}

	if err := db.Ping(); err != nil {
		return nil, pfx.Err(err)
	}

	return &DB{db: db}, nil
}

// Close releases the handle.
func (d *DB) Close() error {
	return pfx.Err(d.db.Close())
}

// Query returns the variants on chr between startMbp and endMbp inclusive,
// ordered by position.
func (d *DB) Query(chr string, startMbp, endMbp float64) ([]Variant, error) {
	rows, err := d.db.Query(
		`SELECT snp_id, chr, pos_Mbp, alleles, sdp FROM snps WHERE chr = ? AND pos_Mbp >= ? AND pos_Mbp <= ? ORDER BY pos_Mbp`,
		chr, startMbp, endMbp)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rows.Close()

	var out []Variant
	for rows.Next() {
		var v Variant
		var sdp int
		if err := rows.Scan(&v.ID, &v.Chr, &v.Mbp, &v.Alleles, &sdp); err != nil {
			return nil, pfx.Err(err)
		}

		if sdp < 0 || sdp > 255 {
			return nil, pfx.Err(fmt.Errorf("variant %s has strain distribution pattern %d outside 8-founder range", v.ID, sdp))
		}
		v.SDP = uint8(sdp)

		out = append(out, v)
	}

	return out, pfx.Err(rows.Err())
}
