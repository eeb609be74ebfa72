// Package google turns pass records into Google Wallet payloads.
//
// Each pass becomes a wallet object built by overlaying the profile's
// partial onto an embedded base template, except loyalty program
// parents, which become shared loyalty classes. The renderer attempts a
// best-effort upsert against the wallet REST API and then signs a
// "Save to Google Wallet" JWT carrying the object inline, so a failed
// or skipped upsert still yields a working save URL. Without a service
// account the package runs degraded: upserts are skipped and save URLs
// fall back to unsigned object references.
package google
