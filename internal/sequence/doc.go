// Package sequence writes and reads MetaIO-style ".mha" sequence files: a
// text header describing a degenerate 1x1xN image, one block of custom
// fields per frame carrying a transform and its timestamp, and a footer.
package sequence
