package core

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTimestampJSONRoundTrip checks reports can be decoded back into Timestamps
func TestTimestampJSONRoundTrip(t *testing.T) {
	want := NewTimestamp(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))

	data, err := json.Marshal(struct {
		StartedAt Timestamp `json:"started_at"`
	}{want})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got struct {
		StartedAt Timestamp `json:"started_at"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.StartedAt.Time().Equal(want.Time()) {
		t.Errorf("Expected %s, got %s", want, got.StartedAt)
	}

	if err := json.Unmarshal([]byte(`{"started_at":"yesterday"}`), &got); err == nil {
		t.Error("Expected an error for a non-RFC3339 timestamp")
	}
}
