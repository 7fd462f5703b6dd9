package mongo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

const (
	refreshTokenCollection = "refresh_tokens"
	// 32 random bytes: 256 bits of entropy per token.
	rawTokenBytes = 32
)

// MongoRefreshTokenRepository stores one document per live session. Only the
// SHA-256 digest of the token is persisted; a stolen database dump yields no
// usable credential.
type MongoRefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *MongoRefreshTokenRepository {
	return &MongoRefreshTokenRepository{coll: db.Collection(refreshTokenCollection)}
}

type mongoRefreshToken struct {
	TokenHash string `bson:"token_hash"`
	UserID    string `bson:"user_id"`
	IssuedAt  int64  `bson:"issued_at"`
	ExpiresAt int64  `bson:"expires_at"`
}

// EnsureIndexes creates the unique digest index (point lookups, and a guard
// against the astronomically unlikely digest collision) plus the user_id
// index backing RevokeAllForUser.
func (r *MongoRefreshTokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	})
	if err != nil {
		return storeErr("ensure refresh token indexes", err)
	}
	return nil
}

func (r *MongoRefreshTokenRepository) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	raw, err := newRawToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	doc := mongoRefreshToken{
		TokenHash: hashToken(raw),
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", storeErr("insert refresh token", err)
	}
	return raw, nil
}

// Consume deletes and returns the record in a single FindOneAndDelete.
// That one conditional delete is what makes rotation safe under concurrency:
// of two racing refreshes with the same token, exactly one gets the
// document back and the other sees ErrNoDocuments.
func (r *MongoRefreshTokenRepository) Consume(ctx context.Context, rawToken string) (*domain.RefreshTokenRecord, error) {
	var doc mongoRefreshToken
	err := r.coll.FindOneAndDelete(ctx, bson.M{"token_hash": hashToken(rawToken)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, storeErr("consume refresh token", err)
	}

	record := domain.RefreshTokenRecord{
		TokenHash: doc.TokenHash,
		UserID:    doc.UserID,
		IssuedAt:  unixToTime(doc.IssuedAt),
		ExpiresAt: unixToTime(doc.ExpiresAt),
	}
	if record.Expired(time.Now().UTC()) {
		// The stale record is already gone; this is the lazy cleanup path.
		return nil, domain.ErrRefreshTokenExpired
	}
	return &record, nil
}

func (r *MongoRefreshTokenRepository) Revoke(ctx context.Context, rawToken string) error {
	// DeleteOne on a missing document matches zero rows and is not an error,
	// which is exactly the idempotency logout needs.
	if _, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": hashToken(rawToken)}); err != nil {
		return storeErr("revoke refresh token", err)
	}
	return nil
}

func (r *MongoRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return storeErr("revoke user refresh tokens", err)
	}
	return nil
}

func (r *MongoRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC().Unix()}})
	if err != nil {
		return 0, storeErr("delete expired refresh tokens", err)
	}
	return res.DeletedCount, nil
}

func newRawToken() (string, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
