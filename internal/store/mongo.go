package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/apperr"
	"github.com/biodun42/NexThread/internal/conversation"
	"github.com/biodun42/NexThread/internal/models"
)

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mongo.Connect(ctx, options.Client().ApplyURI(uri))
}

// MongoMessageStore implements MessageStore on a Mongo collection,
// using change streams for liveness.
type MongoMessageStore struct {
	coll *mongo.Collection
	log  *zap.SugaredLogger
}

func NewMongoMessageStore(coll *mongo.Collection, log *zap.SugaredLogger) *MongoMessageStore {
	ix := mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("participants_created_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), ix)
	return &MongoMessageStore{coll: coll, log: log}
}

func (s *MongoMessageStore) History(ctx context.Context, key conversation.Key) ([]models.Message, error) {
	filter := bson.M{"participants": bson.A{key[0], key[1]}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Subscription("find messages", err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, apperr.Subscription("decode message", err)
		}
		if err := validateMessage(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Subscription("message cursor", err)
	}
	return out, nil
}

func (s *MongoMessageStore) Subscribe(ctx context.Context, key conversation.Key, onChange func([]models.Message), onError func(error)) (Subscription, error) {
	// Open the stream before the initial read so nothing lands in the
	// gap between snapshot and watch.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"fullDocument.participants": bson.A{key[0], key[1]},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.coll.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, apperr.Subscription("watch messages", err)
	}

	sub := &liveSub{cancel: cancel, onChange: onChange, onError: onError}

	snapshot, err := s.History(ctx, key)
	if err != nil {
		sub.Cancel()
		_ = stream.Close(context.Background())
		return nil, err
	}
	sub.emit(snapshot)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			snap, err := s.History(streamCtx, key)
			if err != nil {
				sub.fail(err)
				return
			}
			sub.emit(snap)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			sub.fail(apperr.Subscription("message stream", err))
		}
	}()

	return sub, nil
}

func (s *MongoMessageStore) Send(ctx context.Context, sender, receiver, kind, content string) (string, error) {
	key := conversation.NewKey(sender, receiver)
	id := uuid.NewString()
	doc := bson.M{
		"sender":       sender,
		"receiver":     receiver,
		"participants": bson.A{key[0], key[1]},
		"content":      content,
		"kind":         kind,
		"read":         false,
	}
	// Upsert with $currentDate so created_at is stamped by the server,
	// not the client clock.
	update := bson.M{
		"$setOnInsert": doc,
		"$currentDate": bson.M{"created_at": true},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update, opts); err != nil {
		return "", apperr.Write("send message", err)
	}
	return id, nil
}

func (s *MongoMessageStore) MarkRead(ctx context.Context, id string) error {
	// Setting true is monotonic; repeating it on an already-read
	// message is a no-op, not an error.
	if _, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"read": true}}); err != nil {
		return apperr.Write("mark read", err)
	}
	return nil
}

func validateMessage(m *models.Message) error {
	if m.ID == "" || m.Sender == "" || m.Receiver == "" {
		return apperr.Subscription("message record", apperr.ErrNotFound)
	}
	if m.Kind != models.KindText && m.Kind != models.KindImage {
		return apperr.Subscription("message kind", apperr.ErrValidation)
	}
	want := conversation.NewKey(m.Sender, m.Receiver)
	if m.Participants != [2]string(want) {
		return apperr.Subscription("message participants", apperr.ErrValidation)
	}
	return nil
}

// liveSub guards delivery so no callback fires after Cancel returns.
type liveSub struct {
	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	onChange func([]models.Message)
	onError  func(error)
}

func (l *liveSub) emit(snap []models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.onChange(snap)
}

func (l *liveSub) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.onError != nil {
		l.onError(err)
	}
}

func (l *liveSub) Cancel() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cancel()
}
