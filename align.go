package doqtl2

import "fmt"

// CheckSampleOrder verifies that two sample ID slices are identical, element
// for element. Every statistic downstream of the genotype probabilities
// assumes row i of the probability array and row i of the phenotype table are
// the same mouse, so a mismatch here has to stop the run before any kinship
// or scan computation happens.
func CheckSampleOrder(probIDs, phenoIDs []string) error {
	if len(probIDs) != len(phenoIDs) {
		return fmt.Errorf("sample count mismatch: %d probability rows vs %d phenotype rows", len(probIDs), len(phenoIDs))
	}

	for i := range probIDs {
		if probIDs[i] != phenoIDs[i] {
			return fmt.Errorf("sample order mismatch at row %d: probability array has %q, phenotype table has %q", i, probIDs[i], phenoIDs[i])
		}
	}

	return nil
}
