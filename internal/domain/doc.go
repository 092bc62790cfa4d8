// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (record.go, dataset.go, diagnostics.go, errors.go)
// with shared types and cross-cutting interfaces. No transport or storage code - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
