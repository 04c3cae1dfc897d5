package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell runs apart in logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ConfigHash fingerprints a simulation configuration
type ConfigHash Hash

func (h ConfigHash) String() string { return Hash(h).String() }
func (h ConfigHash) Short() string  { return Hash(h).Short() }

// ComputeConfigHash hashes the canonical JSON encoding of v.
// encoding/json sorts map keys, so equal values always hash equally.
func ComputeConfigHash(v any) (ConfigHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return ConfigHash(NewHash(data)), nil
}
