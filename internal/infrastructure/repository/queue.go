package repository

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/totegamma/carelog/internal/domain"
)

const queuePrefix = "queue:"

// LevelQueueStore keeps serialized queues in leveldb. Writes are synced so a
// returned Put survives a crash.
type LevelQueueStore struct {
	db *leveldb.DB
}

func NewLevelQueueStore(db *leveldb.DB) *LevelQueueStore {
	return &LevelQueueStore{db: db}
}

func (s *LevelQueueStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.db.Get([]byte(queuePrefix+key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "queue " + key}
		}
		return nil, err
	}
	return value, nil
}

func (s *LevelQueueStore) Put(ctx context.Context, key string, value []byte) error {
	return s.db.Put([]byte(queuePrefix+key), value, &opt.WriteOptions{Sync: true})
}
