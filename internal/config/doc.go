// Package config provides configuration structures and utilities for
// contractdiff. It defines the options for talking to the block explorer,
// the on-disk layout of diffs and selections, and the optional YAML file
// that supplies defaults for both.
package config
