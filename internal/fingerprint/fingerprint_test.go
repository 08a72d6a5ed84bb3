package fingerprint_test

import (
	"testing"

	"github.com/hamrosuraksha/reliefchain/internal/fingerprint"
)

func sampleFields() map[string]string {
	return map[string]string{
		"id":             "r1",
		"full_name":      "A B",
		"citizenship_no": "12-34-56-78901",
		"relief_amount":  "50000",
		"province":       "bagmati",
		"district":       "Kaski",
		"disaster_type":  "Flood",
		"officer_name":   "X Y",
		"officer_id":     "OFF1",
		"created_at":     "2024-01-01T00:00:00",
	}
}

// Known-good digest of sampleFields, locked so the canonical serialisation
// can never drift silently. Changing it would orphan every memo already on
// chain.
const sampleDigest = "04f7f547556f01ee4d22b787eea70159f9b16837db4db811a683d490ee0232dd"

func TestCompute_knownVector(t *testing.T) {
	got := fingerprint.Compute(sampleFields())
	if got != sampleDigest {
		t.Errorf("Compute() = %s, want %s", got, sampleDigest)
	}
}

func TestCompute_deterministic(t *testing.T) {
	a := fingerprint.Compute(sampleFields())
	b := fingerprint.Compute(sampleFields())
	if a != b {
		t.Errorf("two computations differ: %s vs %s", a, b)
	}
}

func TestCompute_fieldOrderIndependent(t *testing.T) {
	want := fingerprint.Compute(sampleFields())

	// Build the same logical record with a different insertion order.
	permuted := map[string]string{}
	permuted["created_at"] = "2024-01-01T00:00:00"
	permuted["officer_id"] = "OFF1"
	permuted["officer_name"] = "X Y"
	permuted["disaster_type"] = "Flood"
	permuted["district"] = "Kaski"
	permuted["province"] = "bagmati"
	permuted["relief_amount"] = "50000"
	permuted["citizenship_no"] = "12-34-56-78901"
	permuted["full_name"] = "A B"
	permuted["id"] = "r1"

	if got := fingerprint.Compute(permuted); got != want {
		t.Errorf("permuted input hashed to %s, want %s", got, want)
	}
}

func TestCompute_sensitiveToImmutableFields(t *testing.T) {
	base := fingerprint.Compute(sampleFields())

	mutated := sampleFields()
	mutated["full_name"] = "A C"
	got := fingerprint.Compute(mutated)

	if got == base {
		t.Error("changing full_name did not change the fingerprint")
	}
	const want = "f10e9e5f125077e6e9698ce9e0c800eec78032dd60baeac57622a5b1f29a2e4d"
	if got != want {
		t.Errorf("mutated digest = %s, want %s", got, want)
	}
}

func TestCompute_ignoresBookkeepingFields(t *testing.T) {
	base := fingerprint.Compute(sampleFields())

	withBookkeeping := sampleFields()
	withBookkeeping["updated_at"] = "2025-06-01T12:00:00"
	withBookkeeping["solana_tx_signature"] = "5KtP..."
	withBookkeeping["record_hash"] = base

	if got := fingerprint.Compute(withBookkeeping); got != base {
		t.Errorf("bookkeeping fields affected the fingerprint: %s vs %s", got, base)
	}
}

func TestCompute_missingFieldsHashAsEmpty(t *testing.T) {
	partial := map[string]string{"id": "r1"}

	a := fingerprint.Compute(partial)
	b := fingerprint.Compute(map[string]string{"id": "r1", "full_name": ""})
	if a != b {
		t.Errorf("missing field and empty field hashed differently: %s vs %s", a, b)
	}

	full := fingerprint.Compute(sampleFields())
	if a == full {
		t.Error("partial record hashed identically to a full record")
	}
}
