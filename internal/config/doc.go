// Package config provides configuration structures and utilities for the
// crawler. It defines the main configuration options for page crawling,
// decision service access, document downloads, and summary output, plus the
// optional YAML file of per-site overrides.
package config
