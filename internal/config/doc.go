// Package config loads, normalizes, and validates segue's TOML
// configuration. Load applies repository defaults first, so a missing
// config file yields a working local-only setup; paths are expanded and
// made absolute before validation.
package config
