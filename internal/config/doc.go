// Package config implements configuration loading for the ingest service.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// a .env file, then process environment variables. Command-line flags are
// applied on top by the caller. The merged result is validated before use.
package config
