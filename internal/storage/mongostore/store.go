// Package mongostore stores fintrack documents in MongoDB, one collection per
// document kind, every query filtered by owner.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

const (
	colTransactions  = "transactions"
	colCategories    = "categories"
	colSettings      = "user_settings"
	colShares        = "shares"
	colSubscriptions = "subscriptions"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and pings the server before returning.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}
	idx := map[string][]mongo.IndexModel{
		colTransactions: {byUser},
		colCategories:   {byUser},
		colShares:       {{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		colSubscriptions: {
			byUser,
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "renewal_date", Value: 1}}},
		},
	}
	for col, models := range idx {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// ---- transactions ----

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var docs []transactionDoc
	if err := s.findAll(ctx, colTransactions, bson.M{"user_id": userID}, bson.D{{Key: "_id", Value: 1}}, &docs); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		tx, err := d.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var d transactionDoc
	if err := s.findOne(ctx, colTransactions, bson.M{"_id": id, "user_id": userID}, &d); err != nil {
		return core.Transaction{}, err
	}
	return d.toCore()
}

func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colTransactions).InsertOne(ctx, transactionToDoc(tx)); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	return s.replace(ctx, colTransactions, bson.M{"_id": tx.ID, "user_id": tx.UserID}, transactionToDoc(tx))
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colTransactions, bson.M{"_id": id, "user_id": userID})
}

// ---- categories ----

func (s *Store) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	var docs []categoryDoc
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	if err := s.findAll(ctx, colCategories, bson.M{"user_id": userID}, sort, &docs); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	var d categoryDoc
	if err := s.findOne(ctx, colCategories, bson.M{"_id": id, "user_id": userID}, &d); err != nil {
		return core.Category{}, err
	}
	return d.toCore(), nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colCategories).InsertOne(ctx, categoryToDoc(c)); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	return s.updateOne(ctx, colCategories, bson.M{"_id": c.ID, "user_id": c.UserID}, bson.M{"$set": bson.M{
		"name":       c.Name,
		"icon":       c.Icon,
		"color":      c.Color,
		"updated_at": c.UpdatedAt,
	}})
}

func (s *Store) SetCategoryBudget(ctx context.Context, userID, id string, month core.MonthKey, amount core.Money, at time.Time) error {
	return s.updateOne(ctx, colCategories, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{
		"monthly_budgets." + string(month): amount.Cents,
		"updated_at":                       at,
	}})
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colCategories, bson.M{"_id": id, "user_id": userID})
}

// ---- settings ----

func (s *Store) GetSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	var d settingsDoc
	if err := s.findOne(ctx, colSettings, bson.M{"_id": userID}, &d); err != nil {
		return core.UserSettings{}, err
	}
	return d.toCore(), nil
}

func (s *Store) PutSettings(ctx context.Context, st core.UserSettings) error {
	_, err := s.db.Collection(colSettings).ReplaceOne(ctx, bson.M{"_id": st.UserID}, settingsToDoc(st),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ---- shares ----

func (s *Store) AddShare(ctx context.Context, sh core.Share) (core.Share, error) {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colShares).InsertOne(ctx, shareToDoc(sh)); err != nil {
		return core.Share{}, fmt.Errorf("insert share: %w", err)
	}
	return sh, nil
}

func (s *Store) GetShare(ctx context.Context, ownerID, id string) (core.Share, error) {
	var d shareDoc
	if err := s.findOne(ctx, colShares, bson.M{"_id": id, "owner_id": ownerID}, &d); err != nil {
		return core.Share{}, err
	}
	return d.toCore(), nil
}

func (s *Store) ListShares(ctx context.Context, ownerID string) ([]core.Share, error) {
	var docs []shareDoc
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	if err := s.findAll(ctx, colShares, bson.M{"owner_id": ownerID}, sort, &docs); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	out := make([]core.Share, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) RevokeShare(ctx context.Context, ownerID, id string, at time.Time) error {
	filter := bson.M{"_id": id, "owner_id": ownerID}
	res, err := s.db.Collection(colShares).UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "revoked_at": nil},
		bson.M{"$set": bson.M{"revoked_at": at}})
	if err != nil {
		return fmt.Errorf("revoke share %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	// already revoked or missing
	n, err := s.db.Collection(colShares).CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("revoke share %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- subscriptions ----

var subscriptionSort = bson.D{{Key: "renewal_date", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	return s.findSubscriptions(ctx, bson.M{"user_id": userID})
}

func (s *Store) ListDueSubscriptions(ctx context.Context, onOrBefore core.Date) ([]core.Subscription, error) {
	return s.findSubscriptions(ctx, bson.M{
		"status":       string(core.SubscriptionActive),
		"renewal_date": bson.M{"$lte": onOrBefore.String()},
	})
}

func (s *Store) findSubscriptions(ctx context.Context, filter bson.M) ([]core.Subscription, error) {
	var docs []subscriptionDoc
	if err := s.findAll(ctx, colSubscriptions, filter, subscriptionSort, &docs); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]core.Subscription, 0, len(docs))
	for _, d := range docs {
		sub, err := d.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error) {
	var d subscriptionDoc
	if err := s.findOne(ctx, colSubscriptions, bson.M{"_id": id, "user_id": userID}, &d); err != nil {
		return core.Subscription{}, err
	}
	return d.toCore()
}

func (s *Store) AddSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colSubscriptions).InsertOne(ctx, subscriptionToDoc(sub)); err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	return s.replace(ctx, colSubscriptions, bson.M{"_id": sub.ID, "user_id": sub.UserID}, subscriptionToDoc(sub))
}

func (s *Store) DeleteSubscription(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colSubscriptions, bson.M{"_id": id, "user_id": userID})
}

// ---- helpers ----

func (s *Store) findOne(ctx context.Context, col string, filter bson.M, out any) error {
	err := s.db.Collection(col).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", col, err)
	}
	return nil
}

func (s *Store) findAll(ctx context.Context, col string, filter bson.M, sort bson.D, out any) error {
	cursor, err := s.db.Collection(col).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (s *Store) replace(ctx context.Context, col string, filter bson.M, doc any) error {
	res, err := s.db.Collection(col).ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace in %s: %w", col, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) updateOne(ctx context.Context, col string, filter, update bson.M) error {
	res, err := s.db.Collection(col).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", col, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) deleteOne(ctx context.Context, col string, filter bson.M) error {
	res, err := s.db.Collection(col).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", col, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}
