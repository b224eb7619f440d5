// Package main hosts the transformrecorder CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, structured logging, the
// capture controller, and the optional recording catalog together. The
// record command feeds transform updates from a text stream into in-memory
// sources so recordings can be produced from logs or other tools; inspect
// and catalog read back what was written.
//
// Keep this package lean: recording semantics live in internal/capture and
// internal/sequence, and commands here only translate flags into calls.
package main
