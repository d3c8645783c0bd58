// Package ui holds the terminal surface of the CLI: coloured output, the
// run confirmation prompt, a progress spinner and the run summary.
package ui
