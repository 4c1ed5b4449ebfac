// Package file stores settings as TOML under ~/.urbanlex, with
// URBANLEX_* environment variables taking precedence over the file.
package file
