// Package services implements the driving port interfaces.
//
// A session runs the answering pipeline: the corpus is loaded and chunked,
// an embedding index is built once, and every question goes through
// retrieval, a single generation call and a memory update. Services talk
// to models, stores and sources only through driven ports.
package services
