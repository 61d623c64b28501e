// Package services implements the retrieval pipeline use cases:
// ingestion (chunk, embed, store), hybrid ranking with rank fusion,
// retrieval orchestration with degradable auxiliary-model calls, and the
// pure context window assembler.
//
// Services depend only on the port interfaces in core/ports and are
// wired to concrete adapters by the CLI layer.
package services
