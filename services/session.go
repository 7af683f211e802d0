package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"phone-console/models"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	SessionCookieName = "session"

	sessionCollection    = "console_sessions"
	credentialCollection = "console_credentials"
)

// SessionStore holds console session records. The session snapshot inside a
// record changes only through Apply and ClearAuth, mirroring the two reducer
// transitions: ClearAuth resets authentication state and always preserves the
// sidebar/theme preferences.
type SessionStore interface {
	Create(ctx context.Context, state models.Session, ipAddress, userAgent string) (*models.SessionRecord, error)
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	Apply(ctx context.Context, sessionID string, change models.SessionChange) error
	ClearAuth(ctx context.Context, sessionID string) error
	Extend(ctx context.Context, sessionID string) error
	Destroy(ctx context.Context, sessionID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// CredentialStore holds the durable credential record mirroring each
// authenticated session. Purge removes token and admin together.
type CredentialStore interface {
	Save(ctx context.Context, cred models.CredentialRecord) error
	Get(ctx context.Context, sessionID string) (*models.CredentialRecord, error)
	Purge(ctx context.Context, sessionID string) error
}

// GenerateSessionID generates a secure random session ID
func GenerateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// MongoSessionStore is the MongoDB-backed SessionStore.
type MongoSessionStore struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewMongoSessionStore(db *mongo.Database, ttl time.Duration) *MongoSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MongoSessionStore{col: db.Collection(sessionCollection), ttl: ttl}
}

func (s *MongoSessionStore) Create(ctx context.Context, state models.Session, ipAddress, userAgent string) (*models.SessionRecord, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	record := &models.SessionRecord{
		ID:           primitive.NewObjectID(),
		SessionID:    sessionID,
		State:        state,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(s.ttl),
		IsActive:     true,
	}

	if _, err := s.col.InsertOne(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return record, nil
}

func (s *MongoSessionStore) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	err := s.col.FindOne(ctx, bson.M{
		"session_id": sessionID,
		"is_active":  true,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&record)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &record, nil
}

func (s *MongoSessionStore) Apply(ctx context.Context, sessionID string, change models.SessionChange) error {
	record, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("session not found or inactive")
	}

	record.State.Apply(change)

	_, err = s.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "is_active": true},
		bson.M{"$set": bson.M{
			"state":         record.State,
			"last_accessed": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) ClearAuth(ctx context.Context, sessionID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$set":   bson.M{"state.authenticated": false, "last_accessed": time.Now()},
			"$unset": bson.M{"state.admin": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to clear session auth: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Extend(ctx context.Context, sessionID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "is_active": true},
		bson.M{"$set": bson.M{
			"last_accessed": time.Now(),
			"expires_at":    time.Now().Add(s.ttl),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Destroy(ctx context.Context, sessionID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"is_active":  false,
			"expires_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	// Delete sessions that expired more than 7 days ago
	cutoffTime := time.Now().Add(-7 * 24 * time.Hour)

	result, err := s.col.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": cutoffTime},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return result.DeletedCount, nil
}

// MongoCredentialStore is the MongoDB-backed CredentialStore.
type MongoCredentialStore struct {
	col *mongo.Collection
}

func NewMongoCredentialStore(db *mongo.Database) *MongoCredentialStore {
	return &MongoCredentialStore{col: db.Collection(credentialCollection)}
}

func (s *MongoCredentialStore) Save(ctx context.Context, cred models.CredentialRecord) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}
	// One credential record per session
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"session_id": cred.SessionID},
		cred,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential record: %w", err)
	}
	return nil
}

func (s *MongoCredentialStore) Get(ctx context.Context, sessionID string) (*models.CredentialRecord, error) {
	var cred models.CredentialRecord
	err := s.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&cred)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential record: %w", err)
	}
	return &cred, nil
}

func (s *MongoCredentialStore) Purge(ctx context.Context, sessionID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to purge credential record: %w", err)
	}
	return nil
}
