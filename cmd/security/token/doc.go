// Package token generates and redacts FileFly session tokens.
//
// Tokens are 64 random bytes from crypto/rand, base64url-encoded. They are opaque
// lookup keys: no embedded structure and no signature. Never log a full token;
// use Redact or Fingerprint.
package token
