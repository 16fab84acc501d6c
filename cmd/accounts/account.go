package accounts

import (
	"encoding/json"
	"time"
)

// Account is a persisted credential record.
// PasswordHash is a salted one-way hash; the plaintext password is never stored.
type Account struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"pass"`
	Identifier   string    `json:"uuid"`
	Root         bool      `json:"root"`
	CreatedAt    time.Time `json:"created"`
}

// CreateInput describes an account creation request.
type CreateInput struct {
	Name     string
	Password string
	Root     bool
}

func encodeAccount(a Account) ([]byte, error) {
	return json.Marshal(a)
}

func decodeAccount(b []byte) (Account, error) {
	var a Account
	if err := json.Unmarshal(b, &a); err != nil {
		return Account{}, err
	}
	return a, nil
}
