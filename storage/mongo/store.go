package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

const (
	membershipsCollection  = "memberships"
	transactionsCollection = "payment_transactions"
)

// EnsureIndexes creates the secondary indexes both stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(membershipsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().
			SetName("memberships_expiring").
			SetPartialFilterExpression(bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: true}}}}),
	})
	if err != nil {
		return fmt.Errorf("create memberships index: %w", err)
	}

	_, err = db.Collection(transactionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("payment_transactions_user"),
	})
	if err != nil {
		return fmt.Errorf("create payment_transactions index: %w", err)
	}
	return nil
}

// MembershipStore implements membership.Store and membership.ExpiredLister.
type MembershipStore struct {
	coll *mongo.Collection
}

func NewMembershipStore(db *mongo.Database) *MembershipStore {
	if db == nil {
		panic("mongo: database is required")
	}
	return &MembershipStore{coll: db.Collection(membershipsCollection)}
}

func (s *MembershipStore) Get(ctx context.Context, userID string) (*membership.Record, error) {
	var rec membership.Record
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, membership.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &rec, nil
}

func (s *MembershipStore) Save(ctx context.Context, rec *membership.Record) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: rec.UserID}},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	return nil
}

func (s *MembershipStore) ListExpired(ctx context.Context, before time.Time, limit int) ([]string, error) {
	filter := bson.D{
		{Key: "tier", Value: bson.D{{Key: "$ne", Value: membership.TierFree}}},
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: before}}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(int64(max(limit, 1))).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list expired memberships: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expired memberships: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// TransactionStore implements payment.TransactionStore.
type TransactionStore struct {
	coll *mongo.Collection
}

func NewTransactionStore(db *mongo.Database) *TransactionStore {
	if db == nil {
		panic("mongo: database is required")
	}
	return &TransactionStore{coll: db.Collection(transactionsCollection)}
}

func (s *TransactionStore) Create(ctx context.Context, tx *payment.Transaction) error {
	if _, err := s.coll.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return payment.ErrDuplicateTransaction
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) Get(ctx context.Context, sessionID string) (*payment.Transaction, error) {
	var tx payment.Transaction
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: sessionID}}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, payment.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &tx, nil
}

// Transition matches on both the session and its expected status; a zero match count means
// another writer got there first or the session does not exist.
func (s *TransactionStore) Transition(ctx context.Context, sessionID string, from, to payment.Status, gatewayTxID string, at time.Time) (bool, error) {
	set := bson.D{
		{Key: "status", Value: to},
		{Key: "updated_at", Value: at},
	}
	if gatewayTxID != "" {
		set = append(set, bson.E{Key: "gateway_transaction_id", Value: gatewayTxID})
	}
	if to == payment.StatusCompleted {
		set = append(set, bson.E{Key: "completed_at", Value: at})
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: sessionID}, {Key: "status", Value: from}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return false, fmt.Errorf("transition transaction: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
