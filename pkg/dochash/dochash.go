// Package dochash fingerprints rendered documents and canonical JSON values.
package dochash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalSHA256 hashes json.Marshal(v); used to fingerprint form-data
// snapshots at signing time.
func CanonicalSHA256(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
