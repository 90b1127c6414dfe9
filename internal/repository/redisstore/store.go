// Package redisstore keeps job applications in Redis. Each document is a
// JSON string under {prefix}{collection}:{id}; insertion order lives in the
// list {prefix}{collection}:ids.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/pkg/distlock"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/service/application"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "jobtracker:"

const (
	findBatch    = 100
	lockTTL      = 5 * time.Second
	lockAttempts = 40
	lockDelay    = 25 * time.Millisecond
)

// Store is a Redis-backed application store.
type Store struct {
	client     redis.Cmdable
	prefix     string
	collection string
}

// Open parses a redis:// URL, checks the server is reachable and returns a
// store for the collection.
func Open(ctx context.Context, url, collection string) (*Store, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis store ready", "addr", opts.Addr, "db", opts.DB, "collection", collection)
	return New(client, DefaultPrefix, collection), client, nil
}

// New creates a store over an existing client.
func New(client redis.Cmdable, prefix, collection string) *Store {
	if collection == "" {
		collection = domain.Collection
	}
	return &Store{client: client, prefix: prefix, collection: collection}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) docKey(id string) string {
	return s.prefix + s.collection + ":" + id
}

func (s *Store) idsKey() string {
	return s.prefix + s.collection + ":ids"
}

func (s *Store) Insert(ctx context.Context, doc domain.Document) (string, error) {
	body := doc.Clone().Compact()
	delete(body, domain.IDKey)
	data, err := encode(body)
	if err != nil {
		return "", err
	}

	id := application.NewID()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(id), data, 0)
		pipe.RPush(ctx, s.idsKey(), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("insert application: %w", err)
	}
	return id, nil
}

// Find walks the id list in insertion order, fetching documents in batches
// and filtering them in process.
func (s *Store) Find(ctx context.Context, f domain.Filter, limit int) ([]domain.Document, error) {
	out := make([]domain.Document, 0)
	for start := int64(0); ; start += findBatch {
		ids, err := s.client.LRange(ctx, s.idsKey(), start, start+findBatch-1).Result()
		if err != nil {
			return nil, fmt.Errorf("list application ids: %w", err)
		}
		if len(ids) == 0 {
			return out, nil
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = s.docKey(id)
		}
		vals, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("fetch applications: %w", err)
		}

		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			doc, err := decode(ids[i], []byte(raw))
			if err != nil {
				return nil, err
			}
			if !f.Matches(doc) {
				continue
			}
			out = append(out, doc)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(ids) < findBatch {
			return out, nil
		}
	}
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.Document, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (domain.Document, error) {
	raw, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return decode(id, raw)
}

// lock takes the per-document lock shared by updates and deletes.
func (s *Store) lock(ctx context.Context, id string) (func(), error) {
	l := distlock.NewRedisLock(s.client, s.docKey(id), lockTTL)
	if err := distlock.Wait(ctx, l, lockAttempts, lockDelay); err != nil {
		if errors.Is(err, distlock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: application %s is locked by another request", application.ErrUnavailable, id)
		}
		return nil, fmt.Errorf("lock application: %w", err)
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("releasing application lock", "key", l.Key(), "error", err)
		}
	}, nil
}

// UpdateByID is a read-modify-write under the per-document lock. The write
// only lands on an existing key, so a document removed meanwhile stays gone.
func (s *Store) UpdateByID(ctx context.Context, id string, patch domain.Patch) error {
	id, err := application.ValidateID(id)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	updated := patch.Apply(doc).Compact()
	delete(updated, domain.IDKey)

	data, err := encode(updated)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.docKey(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if !ok {
		return application.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return 0, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.docKey(id))
		pipe.LRem(ctx, s.idsKey(), 0, id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete application: %w", err)
	}
	return del.Val(), nil
}

// CollectionNames reports every collection with an id list under the
// store's prefix.
func (s *Store) CollectionNames(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*:ids", 100).Iterator()
	for iter.Next(ctx) {
		name := strings.TrimSuffix(strings.TrimPrefix(iter.Val(), s.prefix), ":ids")
		names = append(names, name)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	return names, nil
}

func encode(doc domain.Document) ([]byte, error) {
	plain := make(map[string]any, len(doc))
	for k, v := range doc {
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		plain[k] = v
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("encode application: %w", err)
	}
	return data, nil
}

func decode(id string, raw []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode application %s: %w", id, err)
	}
	if doc == nil {
		doc = domain.Document{}
	}
	doc[domain.IDKey] = id
	return doc, nil
}
