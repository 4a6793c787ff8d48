// Package keys provides key-related helpers for registry operators.
//
// Stable:
//   - Pure, deterministic primitives: principal derivation from public keys,
//     signer-key formatting, and role-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions). These
//     are local-first operator utilities, not part of the registry's core
//     contract: the registry itself never authenticates callers.
package keys
