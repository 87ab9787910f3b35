// Package connectors holds the corpus sources the loader can read from.
// The filesystem source is the only one; it lists a directory tree and
// watches it for changes during a chat.
package connectors
