// Package session implements FileFly's volatile session registry.
//
// Sessions live only in process memory and are keyed by an opaque random token
// that the HTTP layer hands out as the "sid" cookie. A session has a kind (short,
// long or elevated) that selects its expiration window; renewing moves the window
// forward and elevation switches a root session to the short elevated window.
// A background sweep removes expired sessions.
package session
