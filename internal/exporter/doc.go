// Package exporter renders record sets and aggregate tables as CSV
// files and XLSX workbooks.
//
// Every export goes through the same Table representation: a stable
// header row plus typed cells. The CSV side formats cells as text with
// an optional UTF-8 BOM for Excel compatibility; the workbook side
// writes the typed values directly so spreadsheets see real numbers.
// Table builders never re-sort their input, row order belongs to the
// aggregation layer.
package exporter
