package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// commits must survive a crash once Write returns
	syncWriteOpt = &opt.WriteOptions{Sync: true}
	writeOpt     = &opt.WriteOptions{}
	readOpt      = &opt.ReadOptions{}
)

// Options configures the leveldb store.
type Options struct {
	CacheSize              int // MiB
	OpenFilesCacheCapacity int
}

// implements Batch interface
type lvldbBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *lvldbBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *lvldbBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *lvldbBatch) Len() int {
	return b.batch.Len()
}

func (b *lvldbBatch) Write() error {
	return errors.Wrap(b.db.Write(b.batch, syncWriteOpt), "write batch")
}

// LevelStore implements Store on goleveldb.
type LevelStore struct {
	db  *leveldb.DB
	stg storage.Storage
}

var _ Store = (*LevelStore)(nil)

func openLevelDB(stg storage.Storage, opts Options) (*LevelStore, error) {
	cacheSize := opts.CacheSize
	if cacheSize < 16 {
		cacheSize = 16
	}
	openFiles := opts.OpenFilesCacheCapacity
	if openFiles < 64 {
		openFiles = 64
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFiles,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelStore{db: db, stg: stg}, nil
}

// NewMem creates a store backed by in-memory leveldb storage.
func NewMem(opts Options) (*LevelStore, error) {
	return openLevelDB(storage.NewMemStorage(), opts)
}

// Open opens (or creates) a persistent store at path.
func Open(path string, opts Options) (*LevelStore, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	st, err := openLevelDB(stg, opts)
	if err != nil {
		stg.Close()
		return nil, err
	}
	return st, nil
}

func (s *LevelStore) Get(key []byte) ([]byte, error) {
	return s.db.Get(key, readOpt)
}

func (s *LevelStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, readOpt)
}

func (s *LevelStore) IsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

func (s *LevelStore) Put(key, val []byte) error {
	return s.db.Put(key, val, writeOpt)
}

func (s *LevelStore) Delete(key []byte) error {
	return s.db.Delete(key, writeOpt)
}

func (s *LevelStore) NewBatch() Batch {
	return &lvldbBatch{db: s.db, batch: &leveldb.Batch{}}
}

func (s *LevelStore) Iterate(r Range, fn func(key, val []byte) bool) error {
	it := s.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
	defer it.Release()
	for it.Next() {
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return errors.Wrap(it.Error(), "iterate")
}

func (s *LevelStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "close level db")
	}
	return errors.Wrap(s.stg.Close(), "close level db storage")
}
