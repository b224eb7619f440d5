// Package config loads, normalizes, and validates recorder configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TRANSFORMRECORDER_OUTPUT_DIR
// environment fallback. The Config type centralizes every knob the recorder
// and CLI need: where sequence files land, whether they are written on stop,
// the optional recording catalog, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
