// Package html provides a Normaliser for HTML pages exported into the
// corpus directory. Markup is discarded and each block element becomes
// one line of text.
package html
