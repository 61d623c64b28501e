// Package domain contains the core business entities for document
// retrieval and conversation windowing: chunks, messages, search hits,
// and the errors shared across services and adapters.
//
// Domain types have no dependencies on infrastructure. Adapters convert
// to and from these types at the boundary.
package domain
