// Package textutil holds small string helpers shared by the pipeline and the
// presentation layer: file name sanitizing for staged uploads and display
// labels for model identifiers.
package textutil
