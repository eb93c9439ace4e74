// Package jwt issues and inspects the access tokens whose presence and expiry
// decide whether a navigation session is valid.
//
// [Manager.ParseAccess] performs full validation. [Manager.TokenExpiry] checks
// only the signature and reports the expiry, so callers can tell an expired
// session apart from a forged or corrupt token.
package jwt
