package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rifath/chatbot-backend/internal/domain"
)

var (
	// ErrNoRecord indicates no chat log exists for the requested user.
	ErrNoRecord = errors.New("chat log not found")

	// ErrUnavailable indicates the document store is not connected and
	// writes are being discarded.
	ErrUnavailable = errors.New("document store not available")
)

// ChatLogRepo persists completed exchanges into a single document per user.
//
// Each document holds the full history as an ordered array:
//
//	{username: "...", chat: [{user, bot, created_at}, ...], timestamp: <first write>}
type ChatLogRepo struct {
	col *mongo.Collection
}

// NewChatLogRepo returns a repository bound to the given database and
// collection name.
func NewChatLogRepo(db *mongo.Database, collection string) *ChatLogRepo {
	return &ChatLogRepo{col: db.Collection(collection)}
}

// Record appends one exchange to the user's chat log, creating the document
// on first write. The upsert is a single atomic operation, so concurrent
// writers never race a read-then-insert window.
func (r *ChatLogRepo) Record(ctx context.Context, username, userText, botText string, ts time.Time) error {
	entry := domain.ChatEntry{User: userText, Bot: botText, CreatedAt: ts}

	_, err := r.col.UpdateOne(ctx,
		recordFilter(username),
		appendEntry(entry, ts),
		options.Update().SetUpsert(true),
	)
	return err
}

// Get returns the full chat log for a user, or ErrNoRecord when the user has
// never completed an exchange.
func (r *ChatLogRepo) Get(ctx context.Context, username string) (*domain.ChatRecord, error) {
	var rec domain.ChatRecord
	err := r.col.FindOne(ctx, recordFilter(username)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// EnsureIndexes creates the unique index on username. Safe to call on every
// startup.
func (r *ChatLogRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_username"),
	})
	return err
}

func recordFilter(username string) bson.M {
	return bson.M{"username": username}
}

// appendEntry builds the upsert update. $setOnInsert must not repeat the
// username: on insert it is taken from the filter, and duplicating the path
// makes the server reject the update.
func appendEntry(e domain.ChatEntry, ts time.Time) bson.M {
	return bson.M{
		"$push":        bson.M{"chat": e},
		"$setOnInsert": bson.M{"timestamp": ts},
	}
}

// UnavailableChatLog is the recorder used when no document store is
// configured or the connection failed at startup. Every write reports
// ErrUnavailable, which the caller logs and otherwise ignores.
type UnavailableChatLog struct{}

// Record always fails with ErrUnavailable.
func (UnavailableChatLog) Record(context.Context, string, string, string, time.Time) error {
	return ErrUnavailable
}
