// Package services implements the driving ports.
//
// Chunking, metadata extraction, classification and response composition
// are pure. Ingestion, search and querying touch embedding providers,
// vector stores and caches only through driven ports, so every service
// can be tested with in-memory adapters.
package services
