// Package store provides keyed persistence for passbridge entities.
//
// # Data Models
//
//   - Pass: a wallet pass record, parent (schedule/program) or child
//     (ticket/visit/card), with profile-specific optional fields
//   - Business: a loyalty tenant owning a program and its customers
//   - CustomerAccount: a loyalty customer; MemberID is the barcode payload
//
// # Architecture
//
// Store is the single interface every pass mutation flows through.
// MemoryStore is the reference implementation: process-local maps behind
// an RWMutex, with entities copied on the way in and out. A persistent
// implementation can be swapped in behind the same interface without
// touching call sites.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateID: entity id already taken
//
// All methods accept context.Context for cancellation support.
package store
