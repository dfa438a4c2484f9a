// Package services holds the account workflows used by the HTTP server and CLI.
//
// # Accounts
//
// [AuthService] validates registrations, creates the user and its free subscription in one
// transaction, and checks credentials. Unknown usernames still pay for a bcrypt comparison so a
// failed login takes the same time whether or not the account exists.
//
// # Tokens
//
// [TokenIssuer] signs HS256 JWTs whose subject is the user ID. Tokens signed with any other
// algorithm are rejected, and expiry is reported as [shared.ErrTokenExpired] so callers can tell
// a stale session from a forged one.
package services
