// Package filetypes summarizes disk usage per file extension.
//
// It walks the roots with fastwalk for parallel traversal, aggregates the
// active metric by extension and keeps the largest extensions.
package filetypes
