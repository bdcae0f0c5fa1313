// Package convert implements the alignment-format converters that feed the
// inference tools: aligned FASTA to NEXUS (DNA), and VCF to an IQ-TREE
// genotype alignment in FASTA and/or relaxed PHYLIP form.
package convert
