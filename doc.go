// Package doqtl2 holds shared helpers for the Gatti et al. (2014) Diversity
// Outbred reanalysis pipeline: path expansion, CSV delimiter detection, and
// the sample-order check that guards every genome scan.
package doqtl2
