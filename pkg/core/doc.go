// Package core defines the shared language of the Relgrid system.
//
// This package contains:
//   - Domain entities (Value, Row, Column, Relation, QueryOptions, Page)
//   - Collaborator interfaces (PageFetcher, RowMutator, RelationSource,
//     PreferenceStore)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
