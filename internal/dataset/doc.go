// Package dataset provides the in-memory tabular model shared by every
// pipeline stage.
//
// A Table is an ordered set of named columns and rows of tagged cell
// values (null, number, timestamp, or text). The preprocessing pipeline
// keeps two tables per session: the original snapshot, frozen at load,
// and the processed working copy derived from it.
//
// Detect classifies columns into at most one date column (matched by name
// keyword, parsed to timestamps best-effort) and up to thirty numeric
// channels in source order. Stats summarizes a numeric column with the
// same quantile interpolation spreadsheet users expect.
package dataset
