// Package shared holds code used across reportflow packages that belongs to no
// single stage.
//
// The testutil subpackage provides test helpers: a capturing slog handler for
// asserting on log output, and a builder for workbook fixtures in the
// gapminder layout.
//
//	path := testutil.WriteWorkbook(t, testutil.GapminderSheet("2007",
//		[]interface{}{"Belgium", "Europe", 79.441, 10392226, 33000}))
//	logger, logs := testutil.NewTestLogger(t)
package shared
