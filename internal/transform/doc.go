// Package transform defines the rigid-transform value type and the source
// abstraction the capture controller observes.
//
// A Source exposes its current 4x4 matrix through a pull (Matrix) and change
// notifications through Subscribe. Hosts adapt their scene graph or tracker
// feed to this interface; Static is the in-memory implementation used by the
// CLI and tests.
package transform
