// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file and LECGEN_ environment variables.
// It also carries the user preferences injected into the application at start.
package config
