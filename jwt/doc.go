// Package jwt issues and verifies the gateway's tenant-scoped access tokens.
//
// A token carries the principal (tid, uid, usr), iat, exp and a random jti.
// Every parse failure, whatever its cause, is reported as [ErrInvalidToken]
// so callers cannot leak validation internals.
package jwt
