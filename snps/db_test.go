package snps

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func writeTestDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "variants.sqlite")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE snps (snp_id TEXT, chr TEXT, pos_Mbp REAL, alleles TEXT, sdp INTEGER)`); err != nil {
		t.Fatal(err)
	}

	rows := []struct {
		id      string
		chr     string
		mbp     float64
		alleles string
		sdp     int
	}{
		{"rs1", "1", 126.2, "A|G", 32},
		{"rs2", "1", 128.9, "C|T", 7},
		{"rs3", "1", 140.0, "G|A", 128},
		{"rs4", "2", 127.0, "T|C", 1},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO snps VALUES (?, ?, ?, ?, ?)`, r.id, r.chr, r.mbp, r.alleles, r.sdp); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

func TestQueryWindow(t *testing.T) {
	db, err := OpenDB(writeTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	variants, err := db.Query("1", 125, 135)
	if err != nil {
		t.Fatal(err)
	}

	if len(variants) != 2 {
		t.Fatalf("expected 2 variants in the window, got %d", len(variants))
	}

	if variants[0].ID != "rs1" || variants[1].ID != "rs2" {
		t.Errorf("unexpected variants or order: %+v", variants)
	}

	if variants[1].SDP != 7 {
		t.Errorf("rs2 SDP: expected 7, got %d", variants[1].SDP)
	}
}

func TestOpenDBRejectsMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.sqlite")

	if db, err := OpenDB(missing); err == nil {
		db.Close()
		t.Fatal("expected an error for a missing database file")
	}

	// the failed open must not have created the file
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("expected no file to be created, stat returned %v", err)
	}
}

func TestQueryEmptyWindow(t *testing.T) {
	db, err := OpenDB(writeTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	variants, err := db.Query("3", 0, 200)
	if err != nil {
		t.Fatal(err)
	}

	if len(variants) != 0 {
		t.Errorf("expected no variants on chr 3, got %d", len(variants))
	}
}

func TestQueryRejectsOversizedSDP(t *testing.T) {
	path := writeTestDB(t)

	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`INSERT INTO snps VALUES ('rs_bad', '1', 130.0, 'A|G', 300)`); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Query("1", 125, 135); err == nil {
		t.Error("expected an error for an SDP outside the 8-founder range")
	}
}
