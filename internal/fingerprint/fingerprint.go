// Package fingerprint computes deterministic SHA-256 fingerprints of relief
// records for blockchain anchoring and tamper detection.
//
// Only the enumerated immutable fields participate in the digest. Bookkeeping
// fields (updated_at, the stored transaction signature, the stored hash
// itself) are excluded so that touching them never invalidates a previously
// anchored fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ImmutableFields is the exact set of hash-relevant field names, in no
// particular order. Canonicalization sorts them before hashing.
var ImmutableFields = []string{
	"id",
	"full_name",
	"citizenship_no",
	"relief_amount",
	"province",
	"district",
	"disaster_type",
	"officer_name",
	"officer_id",
	"created_at",
}

// Hashable is anything that can expose its fields as a string map.
// record.ReliefRecord satisfies this interface.
type Hashable interface {
	HashFields() map[string]string
}

// Compute returns the hex-encoded SHA-256 fingerprint of a record's
// immutable fields. It is a pure function: the same logical field values
// always produce the same digest, regardless of map iteration or insertion
// order. Fields absent from the input map are hashed as the empty string;
// extra fields are ignored.
func Compute(fields map[string]string) string {
	canon := canonicalize(fields)
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

// ComputeRecord is shorthand for Compute(r.HashFields()).
func ComputeRecord(r Hashable) string {
	return Compute(r.HashFields())
}

// canonicalize serialises the immutable field subset as compact JSON with
// lexicographically sorted keys. encoding/json sorts string map keys and
// emits no insignificant whitespace, so the output is byte-stable for any
// input order. This must stay aligned with the memo payloads already on
// chain: changing the serialisation breaks verification of every previously
// anchored record.
func canonicalize(fields map[string]string) []byte {
	subset := make(map[string]string, len(ImmutableFields))
	for _, name := range ImmutableFields {
		subset[name] = fields[name] // missing keys hash as ""
	}
	// Marshal of map[string]string cannot fail.
	out, _ := json.Marshal(subset)
	return out
}
