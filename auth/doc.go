// Package auth implements the session lifecycle for the marketplace API:
// credential verification, token issuance, the per-device session registry,
// and session validation.
//
// A user may hold at most one live session per device class (phone, laptop).
// Logging in on a device class replaces the previous session for that class,
// which invalidates its token even though the token itself is still
// well-formed and unexpired. Validation therefore requires both a valid
// signature and a registry hit.
//
//   - UserProvider verifies email/password pairs against stored bcrypt hashes.
//   - TokenService mints and parses HS256 bearer tokens.
//   - SessionRegistry owns the per-user session list (replace-on-login).
//   - SessionValidator combines token parsing, user lookup, and a registry
//     liveness check. The HTTP middleware and the validate-session endpoint
//     share this single implementation.
package auth
