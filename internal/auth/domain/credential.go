package domain

import "time"

// Credential is the stored proof that whoever presents Identity knows the
// password. Records are write-once: nothing updates them after creation.
type Credential struct {
	ID           string
	Identity     string // unique key, the e-mail address
	PasswordHash string // encoded hash including scheme and cost
	Salt         []byte // random salt drawn for this credential
	Scheme       string // hashing scheme that produced PasswordHash
	CreatedAt    time.Time
}
