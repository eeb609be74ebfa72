// Package pass implements the pass lifecycle state machine: parent and
// child pass creation, status-flow transitions, and integrity
// hash/signature generation. Every pass mutation in the system goes
// through the Engine in this package.
package pass
