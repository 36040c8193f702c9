// Package benchmarks compares ShadowMemory's paint/lookup hot paths
// against three embedded KV/page engines used as naive per-byte
// tag-storage baselines, adapted from the teacher's own
// benchmarks/bench_cache.go (which compares gdbx against mdbx-go,
// gorocksdb, and bbolt the same way). Here the "value" under comparison
// isn't transaction throughput: it's how much slower a general-purpose
// KV store is at the one thing ShadowMemory is built to do cheaply --
// record one tag per address and look it up again.
package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/authorNari/objgrind"
	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"
)

const benchCacheDir = "testdata/benchdb"

var (
	cacheMu  sync.Mutex
	mdbxEnvs = make(map[string]*mdbxgo.Env)
	boltDBs  = make(map[string]*bolt.DB)
	rocksDBs = make(map[string]*gorocksdb.DB)
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// tagKey encodes a guest address as an 8-byte big-endian key, the naive
// one-entry-per-address representation a generic KV store is stuck with
// where ShadowMemory gets a 2-bit packed page slot instead.
func tagKey(addr uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, addr)
	return k
}

// getCachedMDBX returns a cached mdbx-go environment pre-populated with
// numAddrs sequential address-to-tag entries, creating it if needed.
func getCachedMDBX(b *testing.B, numAddrs int) *mdbxgo.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("mdbx_%d", numAddrs)
	if env, ok := mdbxEnvs[key]; ok {
		return env
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(benchCacheDir, fmt.Sprintf("tags_%d_mdbx.db", numAddrs))
	existed := fileExists(path)

	env, err := mdbxgo.NewEnv(mdbxgo.Label("objgrind-bench"))
	if err != nil {
		b.Fatal(err)
	}
	env.SetOption(mdbxgo.OptMaxDB, 1)
	env.SetGeometry(-1, -1, 1<<30, -1, -1, 4096)
	if err := env.Open(path, mdbxgo.NoSubdir|mdbxgo.NoMetaSync|mdbxgo.WriteMap, 0644); err != nil {
		b.Fatal(err)
	}

	if !existed {
		populateMDBX(b, env, numAddrs)
	}
	mdbxEnvs[key] = env
	return env
}

func populateMDBX(b *testing.B, env *mdbxgo.Env, numAddrs int) {
	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		b.Fatal(err)
	}
	dbi, err := txn.OpenDBI("tags", mdbxgo.Create, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < numAddrs; i++ {
		if err := txn.Put(dbi, tagKey(uint64(i)), []byte{byte(objgrind.Unwritable)}, mdbxgo.Upsert); err != nil {
			b.Fatal(err)
		}
	}
	if _, err := txn.Commit(); err != nil {
		b.Fatal(err)
	}
}

// getCachedBolt returns a cached bbolt database pre-populated the same way.
func getCachedBolt(b *testing.B, numAddrs int) *bolt.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("bolt_%d", numAddrs)
	if db, ok := boltDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(benchCacheDir, fmt.Sprintf("tags_%d_bolt.db", numAddrs))
	existed := fileExists(path)

	db, err := bolt.Open(path, 0644, &bolt.Options{NoSync: true, NoFreelistSync: true})
	if err != nil {
		b.Fatal(err)
	}
	if !existed {
		populateBolt(b, db, numAddrs)
	}
	boltDBs[key] = db
	return db
}

func populateBolt(b *testing.B, db *bolt.DB, numAddrs int) {
	err := db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte("tags"))
		if err != nil {
			return err
		}
		for i := 0; i < numAddrs; i++ {
			if err := bucket.Put(tagKey(uint64(i)), []byte{byte(objgrind.Unwritable)}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

// getCachedRocks returns a cached RocksDB instance pre-populated the same way.
func getCachedRocks(b *testing.B, numAddrs int) *gorocksdb.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("rocks_%d", numAddrs)
	if db, ok := rocksDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(benchCacheDir, fmt.Sprintf("tags_%d_rocks.db", numAddrs))
	existed := fileExists(path)

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		b.Fatal(err)
	}
	if !existed {
		populateRocks(b, db, numAddrs)
	}
	rocksDBs[key] = db
	return db
}

func populateRocks(b *testing.B, db *gorocksdb.DB, numAddrs int) {
	wo := gorocksdb.NewDefaultWriteOptions()
	defer wo.Destroy()

	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	for i := 0; i < numAddrs; i++ {
		batch.Put(tagKey(uint64(i)), []byte{byte(objgrind.Unwritable)})
	}
	if err := db.Write(wo, batch); err != nil {
		b.Fatal(err)
	}
}

// CleanupBenchCache closes every cached environment. Call it after a
// benchmark run to release file handles.
func CleanupBenchCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	for _, env := range mdbxEnvs {
		env.Close()
	}
	for _, db := range boltDBs {
		db.Close()
	}
	for _, db := range rocksDBs {
		db.Close()
	}
	mdbxEnvs = make(map[string]*mdbxgo.Env)
	boltDBs = make(map[string]*bolt.DB)
	rocksDBs = make(map[string]*gorocksdb.DB)
}

// DeleteBenchCache removes all cached database files from disk.
func DeleteBenchCache() error {
	return os.RemoveAll(benchCacheDir)
}
