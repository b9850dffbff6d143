package treestore

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/redis.v5"

	"github.com/xuechao-chen/RegressionForest/tree"
)

/*
Store is an interface to manage a store where
tree records can be put, retrieved and deleted.

All its methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type Store interface {
	// Put stores r under its ID, replacing any
	// record already stored with it.
	Put(ctx context.Context, r *Record) error
	// Get returns the record stored with id, or
	// nil if there is none, or an error if the
	// store cannot be queried.
	Get(ctx context.Context, id int64) (*Record, error)
	// Delete removes the record stored with id.
	Delete(ctx context.Context, id int64) error
	// Close releases the resources of the store.
	Close(ctx context.Context) error
}

type memoryStore struct {
	records map[int64]*Record
	lock    *sync.RWMutex
}

// NewMemoryStore returns an implementation of Store with the process
// memory space as underlying backend.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[int64]*Record),
		lock:    &sync.RWMutex{},
	}
}

func (ms *memoryStore) Put(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	ms.records[r.ID] = r
	return nil
}

func (ms *memoryStore) Get(ctx context.Context, id int64) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.lock.RLock()
	defer ms.lock.RUnlock()
	return ms.records[id], nil
}

func (ms *memoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	delete(ms.records, id)
	return nil
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}

type redisStore struct {
	rc     *redis.Client
	prefix string
	codec  Codec
}

// NewRedisStore builds a Store backed by a redis DB. Records are kept
// under prefix:id, encoded with codec.
func NewRedisStore(rc *redis.Client, prefix string, codec Codec) Store {
	return &redisStore{rc, prefix, codec}
}

func (rs *redisStore) Put(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := rs.keyFor(r.ID)
	data, err := rs.codec.Encode(r)
	if err != nil {
		return fmt.Errorf("storing tree %q: %v", key, err)
	}
	if err := rs.rc.Set(key, data, 0).Err(); err != nil {
		return fmt.Errorf("storing tree %q in redis: %v", key, err)
	}
	return nil
}

func (rs *redisStore) Get(ctx context.Context, id int64) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := rs.keyFor(id)
	data, err := rs.rc.Get(key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving tree %q: %v", key, err)
	}
	r, err := rs.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("retrieving tree %q: %v", key, err)
	}
	return r, nil
}

func (rs *redisStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := rs.keyFor(id)
	if err := rs.rc.Del(key).Err(); err != nil {
		return fmt.Errorf("deleting tree %q from redis: %v", key, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return rs.rc.Close()
}

func (rs *redisStore) keyFor(id int64) string {
	return fmt.Sprintf("%s:%d", rs.prefix, id)
}

// Export puts one record per tree into s. ids[i] is the id of trees[i].
// It returns the number of trees stored before the first failure.
func Export(ctx context.Context, s Store, modelID string, ids []int64, trees []*tree.Tree) (int, error) {
	if len(ids) != len(trees) {
		return 0, fmt.Errorf("%d tree ids for %d trees", len(ids), len(trees))
	}
	for i, t := range trees {
		r, err := FromTree(ids[i], modelID, t)
		if err != nil {
			return i, fmt.Errorf("exporting tree %d: %w", ids[i], err)
		}
		if err := s.Put(ctx, r); err != nil {
			return i, err
		}
	}
	return len(trees), nil
}
