package common

// AccessTokenCookieName is the cookie carrying the short-lived access token
// between the browser-style client and the gateway.
const AccessTokenCookieName = "access_token"

// UserIDHeaderName is the header carrying the local-user hint used to recover
// a session once the access-token cookie has expired.
const UserIDHeaderName = "X-User-ID"
