package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/rifath/chatbot-backend/internal/domain"
)

func TestRecordFilter(t *testing.T) {
	f := recordFilter("rifath")
	if len(f) != 1 {
		t.Fatalf("expected single-field filter, got %v", f)
	}
	if got := f["username"]; got != "rifath" {
		t.Fatalf("expected username=rifath, got %v", got)
	}
}

func TestAppendEntry_PushesExchange(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := domain.ChatEntry{User: "hi", Bot: "hello", CreatedAt: ts}

	u := appendEntry(e, ts)

	push, ok := u["$push"].(bson.M)
	if !ok {
		t.Fatalf("expected $push clause, got %v", u["$push"])
	}
	got, ok := push["chat"].(domain.ChatEntry)
	if !ok {
		t.Fatalf("expected chat entry in $push, got %T", push["chat"])
	}
	if got.User != "hi" || got.Bot != "hello" || !got.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestAppendEntry_SetOnInsertOmitsUsername(t *testing.T) {
	ts := time.Now().UTC()
	u := appendEntry(domain.ChatEntry{}, ts)

	soi, ok := u["$setOnInsert"].(bson.M)
	if !ok {
		t.Fatalf("expected $setOnInsert clause, got %v", u["$setOnInsert"])
	}
	// The username comes from the filter on insert; repeating it here would
	// make the server reject the update with a path conflict.
	if _, present := soi["username"]; present {
		t.Fatalf("$setOnInsert must not contain username: %v", soi)
	}
	if got, ok := soi["timestamp"].(time.Time); !ok || !got.Equal(ts) {
		t.Fatalf("expected timestamp=%v, got %v", ts, soi["timestamp"])
	}
}

func TestUnavailableChatLog_Record(t *testing.T) {
	err := UnavailableChatLog{}.Record(context.Background(), "rifath", "hi", "hello", time.Now())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
