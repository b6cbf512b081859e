// Package dataprocessing loads the EV market CSV datasets and computes the
// analytics behind every dashboard panel.
//
// The loader reads two files: the geographic dataset (one row per ZIP code
// with demographics, charging density, and predicted EV sales) and the
// buyer-concern dataset (one row per city and concern category with mention
// counts and average sentiment). Columns are located by header name, not
// position, so column order in the source files does not matter.
//
// Load errors are classified with the sentinels in internal/errors: a
// missing file wraps ErrDatasetNotFound, a bad value wraps
// ErrDatasetMalformed through a ParseError that names the file, row, and
// column.
//
// The analytics functions are pure: they never mutate their inputs and
// return fresh slices, so a loaded snapshot can be shared across concurrent
// requests.
package dataprocessing
