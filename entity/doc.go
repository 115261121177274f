// Package entity resolves free-form company references to canonical
// OpenDART registry codes.
//
// An Index is bulk-loaded from a company list and answers Resolve queries by
// ticker, registry code, exact normalized name, and finally jamo-level fuzzy
// name similarity. Snapshots persist the company list between runs so the
// index can be rebuilt without contacting the upstream source.
package entity
