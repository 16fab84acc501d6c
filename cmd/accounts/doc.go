// Package accounts is FileFly's credential store.
//
// Accounts are kept in an ordered key-value Backend under their name, encoded as JSON
// ({"name","pass","uuid","root","created"}). Each account carries a salted password hash
// and a globally unique identifier of the form "<name>.<uuid>".
//
// Backends: SQLite (embedded, default), PostgreSQL, and in-memory.
package accounts
