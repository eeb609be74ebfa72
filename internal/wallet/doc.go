// Package wallet ties the pass lifecycle, loyalty layer, and the two
// rendering adapters together behind one service. Lifecycle and
// loyalty errors always propagate to the caller; Apple and Google
// rendering is best-effort, logging failures and leaving the
// corresponding artifact fields empty. Rendered artifacts for
// unchanged passes are served from a TTL cache keyed by the pass's
// update timestamp.
package wallet
