// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.GetPutCloser over goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/metrics"
)

var (
	_ kv.GetPutCloser = (*LevelDB)(nil)

	writeOpt = opt.WriteOptions{Sync: false}
	readOpt  = opt.ReadOptions{}

	metricBatchWrites = metrics.LazyLoadCounter("lvldb_batch_write_count")
	metricBatchSize   = metrics.LazyLoadHistogram("lvldb_batch_size", []int64{1, 4, 16, 64, 256, 1024, 4096})
)

// Options tune a persistent database. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int // MiB shared by block cache and write buffers
	OpenFilesCacheCapacity int
}

// LevelDB stores the committed ledger state.
type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when absent.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	return open(stg, opts)
}

// NewMem opens an empty in-memory database.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cacheSize := max(opts.CacheSize, 16)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, 16),
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		// two write buffers are kept internally
		WriteBuffer: cacheSize / 4 * opt.MiB,
		Filter:      filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, &readOpt)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, &writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// NewBatch starts a batch; nothing is visible until Write.
func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{db: ldb.db}
}

func (ldb *LevelDB) NewIterator(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.From, Limit: r.To}, &readOpt)
}

// Stats reports the size of the database on disk and the number of open tables.
func (ldb *LevelDB) Stats() (size int64, openTables int, err error) {
	var stats leveldb.DBStats
	if err := ldb.db.Stats(&stats); err != nil {
		return 0, 0, err
	}
	for _, n := range stats.LevelSizes {
		size += n
	}
	return size, stats.OpenedTablesCount, nil
}

type batch struct {
	db *leveldb.DB
	b  leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	if err := b.db.Write(&b.b, &writeOpt); err != nil {
		return err
	}
	metricBatchWrites().Add(1)
	metricBatchSize().Observe(int64(b.b.Len()))
	return nil
}
