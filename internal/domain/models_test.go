package domain

import (
	"testing"
	"time"
)

func TestIdempotencyTableName(t *testing.T) {
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("TableName() = %q; want %q", got, "idempotency")
	}
}

func TestRoleConstants(t *testing.T) {
	// The wire protocol of the completion endpoint expects these exact values.
	if RoleSystem != "system" || RoleUser != "user" || RoleAssistant != "assistant" {
		t.Fatalf("unexpected role constants: %q %q %q", RoleSystem, RoleUser, RoleAssistant)
	}
}

func TestChatRecordZeroValue(t *testing.T) {
	var rec ChatRecord
	if len(rec.Chat) != 0 {
		t.Fatalf("zero ChatRecord should have no entries, got %d", len(rec.Chat))
	}
	if !rec.Timestamp.Equal(time.Time{}) {
		t.Fatalf("zero ChatRecord should have zero timestamp")
	}
}
