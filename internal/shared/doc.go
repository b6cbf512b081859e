// Package shared holds cross-cutting helpers that belong to no single
// layer of the EV Market Insights codebase.
//
// Its only subpackage today is testutil, which carries the fixtures the
// package tests build on:
//
//   - DataFixtures writes small geo and concern CSV files into a
//     per-test directory, including deliberately malformed variants for
//     the parser tests
//   - NewTestLogger wires a BufferedSlogHandler into a slog.Logger so
//     tests can assert on emitted records instead of parsing log output
//
// Keep this tree free of business logic. Anything that knows about ZIP
// demographics, concern categories or talking points belongs in the
// domain packages; shared code must stay importable from all of them
// without cycles.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    fixtures := testutil.NewDataFixtures(t.TempDir())
//	    geoPath := fixtures.WriteGeoCSV(t)
//	    // ...
//	}
package shared
