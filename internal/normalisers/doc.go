// Package normalisers turns raw corpus files into plain-text documents.
//
// Each subpackage handles a family of MIME types. Registry dispatches a file
// to the highest-priority normaliser for its type, and Defaults registers
// every built-in one.
package normalisers
