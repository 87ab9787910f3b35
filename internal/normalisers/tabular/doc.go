// Package tabular provides Normalisers for spreadsheet exports.
//
// Both CSV and XLSX files are rendered the same way: the first row of each
// sheet is the header, and every later row becomes one line of
// "column: value" pairs, so a chunk that lands mid-table still carries the
// column names the answer generator needs.
package tabular
