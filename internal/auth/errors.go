package auth

import "errors"

// ErrInvalidCredentials is the single rejection every failed login
// collapses into. Whether the username was unknown, the password wrong or
// the account banned is logged server-side and never crosses the trust
// boundary.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidRefresh is the single rejection for every failed refresh:
// empty token, unknown token, expired token. Callers cannot distinguish
// the cases, which keeps the endpoint useless for account enumeration.
var ErrInvalidRefresh = errors.New("invalid refresh token")
