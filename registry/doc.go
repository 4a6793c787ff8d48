// Package registry implements the credential registry core: a role-gated,
// append-only ledger of certificate records.
//
// A Registry owns a fixed administrator, a mutable registrar set, and a
// mapping from content hash to certificate record. Every mutation is gated
// by pure authorization predicates, applied atomically under a single write
// lock, and announced on an append-only event sink only after the state
// transition has committed. Records are never deleted; a certificate
// transitions at most once, from active to revoked.
package registry
