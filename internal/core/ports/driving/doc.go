// Package driving declares what the CLI, the MCP server and the console
// may ask of the core: ingest acts, classify and answer questions, chunk
// and describe documents, and manage settings.
package driving
