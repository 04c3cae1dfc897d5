package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestNewRunID checks the prefix and the time-ordered UUID behind it
func TestNewRunID(t *testing.T) {
	id := NewRunID().String()
	if !strings.HasPrefix(id, "run-") {
		t.Fatalf("Expected run- prefix, got %s", id)
	}
	parsed, err := uuid.Parse(strings.TrimPrefix(id, "run-"))
	if err != nil {
		t.Fatalf("Expected a UUID after the prefix: %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("Expected UUID v7, got v%d", parsed.Version())
	}
}

// TestConfigHash_Deterministic checks equal values hash equally regardless of map order
func TestConfigHash_Deterministic(t *testing.T) {
	a := map[string]float64{"mu": 0, "sigma": 1}
	b := map[string]float64{"sigma": 1, "mu": 0}

	ha, err := ComputeConfigHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hb, err := ComputeConfigHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ha != hb {
		t.Errorf("Hashes differ: %s vs %s", ha, hb)
	}
	if len(ha.Short()) != 12 {
		t.Errorf("Expected 12-char short hash, got %q", ha.Short())
	}

	hc, _ := ComputeConfigHash(map[string]float64{"mu": 0, "sigma": 2})
	if hc == ha {
		t.Error("Different values produced identical hashes")
	}
}

// TestErrorTaxonomy verifies constructors wrap the right sentinels
func TestErrorTaxonomy(t *testing.T) {
	invalid := NewInvalidParameterError("alpha", "must be in (0,1)")
	degenerate := NewDegenerateSampleError("welch_t", "zero variance")
	empty := NewEmptyResultError("no trials")

	if !IsInvalidParameter(invalid) || IsDegenerateSample(invalid) {
		t.Errorf("invalid parameter error misclassified: %v", invalid)
	}
	if !IsDegenerateSample(degenerate) || IsEmptyResult(degenerate) {
		t.Errorf("degenerate error misclassified: %v", degenerate)
	}
	if !IsEmptyResult(empty) {
		t.Errorf("empty result error misclassified: %v", empty)
	}
	for _, err := range []error{invalid, degenerate, empty} {
		if !IsSimulationError(err) {
			t.Errorf("expected %v to be a simulation error", err)
		}
	}
	if IsSimulationError(errors.New("io failure")) {
		t.Error("unrelated error classified as simulation error")
	}
}
