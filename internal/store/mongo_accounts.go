package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/apperr"
	"github.com/biodun42/NexThread/internal/models"
)

// MongoAccountStore implements AccountStore on the Users collection.
type MongoAccountStore struct {
	coll *mongo.Collection
	log  *zap.SugaredLogger
}

func NewMongoAccountStore(coll *mongo.Collection, log *zap.SugaredLogger) *MongoAccountStore {
	return &MongoAccountStore{coll: coll, log: log}
}

func (s *MongoAccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Write("get account", err)
	}
	return &a, nil
}

func (s *MongoAccountStore) List(ctx context.Context) ([]models.Account, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Subscription("find accounts", err)
	}
	defer cur.Close(ctx)

	out := []models.Account{}
	for cur.Next(ctx) {
		var a models.Account
		if err := cur.Decode(&a); err != nil {
			return nil, apperr.Subscription("decode account", err)
		}
		if a.ID == "" {
			return nil, apperr.Subscription("account record", apperr.ErrNotFound)
		}
		out = append(out, a)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Subscription("account cursor", err)
	}
	return out, nil
}

func (s *MongoAccountStore) Watch(ctx context.Context, onChange func([]models.Account), onError func(error)) (Subscription, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.coll.Watch(streamCtx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, apperr.Subscription("watch accounts", err)
	}

	sub := &accountSub{cancel: cancel, onChange: onChange, onError: onError}

	snapshot, err := s.List(ctx)
	if err != nil {
		sub.Cancel()
		_ = stream.Close(context.Background())
		return nil, err
	}
	sub.emit(snapshot)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			snap, err := s.List(streamCtx)
			if err != nil {
				sub.fail(err)
				return
			}
			sub.emit(snap)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			sub.fail(apperr.Subscription("account stream", err))
		}
	}()

	return sub, nil
}

func (s *MongoAccountStore) Follow(ctx context.Context, followerID, followeeID string) error {
	if _, err := s.coll.UpdateByID(ctx, followerID, bson.M{"$addToSet": bson.M{"following": followeeID}}); err != nil {
		return apperr.Write("follow: following edge", err)
	}
	if _, err := s.coll.UpdateByID(ctx, followeeID, bson.M{"$addToSet": bson.M{"followers": followerID}}); err != nil {
		return apperr.Write("follow: followers edge", err)
	}
	return nil
}

func (s *MongoAccountStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if _, err := s.coll.UpdateByID(ctx, followerID, bson.M{"$pull": bson.M{"following": followeeID}}); err != nil {
		return apperr.Write("unfollow: following edge", err)
	}
	if _, err := s.coll.UpdateByID(ctx, followeeID, bson.M{"$pull": bson.M{"followers": followerID}}); err != nil {
		return apperr.Write("unfollow: followers edge", err)
	}
	return nil
}

func (s *MongoAccountStore) SetPresence(ctx context.Context, id string, online bool) error {
	update := bson.M{"$set": bson.M{"is_online": online}}
	if !online {
		// Server clock, not the client's.
		update["$currentDate"] = bson.M{"last_seen": true}
	}
	if _, err := s.coll.UpdateByID(ctx, id, update); err != nil {
		return apperr.Write("set presence", err)
	}
	return nil
}

// accountSub mirrors liveSub for the account stream.
type accountSub struct {
	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	onChange func([]models.Account)
	onError  func(error)
}

func (l *accountSub) emit(snap []models.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.onChange(snap)
}

func (l *accountSub) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.onError != nil {
		l.onError(err)
	}
}

func (l *accountSub) Cancel() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cancel()
}
