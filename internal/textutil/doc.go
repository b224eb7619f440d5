// Package textutil provides filename sanitization for recorded channel names.
//
// Channel names come from the host and may contain path separators, shell
// metacharacters, or non-normalized Unicode. SanitizeFileName turns them into
// a single safe path segment; the original name is still used verbatim for
// field names inside sequence files.
package textutil
