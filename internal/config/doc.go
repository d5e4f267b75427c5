// Package config loads, normalizes, and validates kaldiark configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// KALDIARK_LOG_LEVEL and KALDIARK_STORE_PATH. Commands obtain reader,
// writer, container, and logging settings through this package so every
// entry point applies the same duplicate policy and float formatting.
package config
