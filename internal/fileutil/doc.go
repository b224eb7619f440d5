// Package fileutil holds the filesystem helpers used when saving recordings:
// writability checks, atomic write-then-rename with a content digest, collision
// free naming, and an advisory directory lock.
package fileutil
