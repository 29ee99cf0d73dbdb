// Package auth implements the access control core: password hashing and
// verification, signed bearer tokens, startup reconciliation of the
// role/permission graph against the declarative catalog, permission checks,
// and the account lifecycle operations that maintain user/role edges.
//
// Reconciliation runs exactly once at startup, before the web service
// accepts traffic, so request handlers only ever read the permission graph.
package auth
