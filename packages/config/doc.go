// Package config handles configuration loading for the httpcall CLI.
//
// It provides functionality for:
//   - Loading configuration from .httpcall.config.json and friends
//   - Default configuration values
//   - Converting a file configuration into client options
package config
