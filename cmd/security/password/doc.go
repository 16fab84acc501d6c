// Package password provides password policy enforcement, hashing and verification for FileFly.
//
// It implements:
//   - Argon2id hashing using a PHC-like encoded string format (default)
//   - bcrypt hashing as an alternative, with the cost acting as work factor
//   - policy validation with one stable failure kind per rule
//
// Security notes:
//   - Hash strings are treated as untrusted input during Verify and are validated accordingly.
//   - Verification refuses Argon2id hashes with parameters far beyond the configured ones.
package password
