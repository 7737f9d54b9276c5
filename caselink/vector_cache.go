package caselink

import (
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

const vectorCacheFile = "embeddings.db"

const vectorCacheSchema = `CREATE TABLE IF NOT EXISTS embeddings (
	key    TEXT PRIMARY KEY,
	model  TEXT NOT NULL,
	dim    INTEGER NOT NULL,
	vector BLOB NOT NULL
)`

// VectorCache keeps model outputs in an in-memory LRU backed by an optional
// SQLite file. It never stores resolver state.
type VectorCache struct {
	mem *lru.Cache[string, []float32]
	mu  sync.Mutex
	db  *sql.DB
}

// NewVectorCache opens a cache holding up to size vectors in memory. When dir
// is non-empty the vectors are also persisted to dir/embeddings.db.
func NewVectorCache(size int, dir string) (*VectorCache, error) {
	if size <= 0 {
		size = 1024
	}
	mem, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c := &VectorCache{mem: mem}
	if dir == "" {
		return c, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, vectorCacheFile))
	if err != nil {
		return nil, fmt.Errorf("open vector cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(vectorCacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create vector cache schema: %w", err)
	}
	c.db = db
	return c, nil
}

// CacheKey derives the cache key of text embedded by modelID.
func CacheKey(modelID, text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached vector for key.
func (c *VectorCache) Get(key string) ([]float32, bool) {
	if vec, ok := c.mem.Get(key); ok {
		return cloneVector(vec), true
	}
	if c.db == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var blob []byte
	err := c.db.QueryRow(`SELECT vector FROM embeddings WHERE key = ?`, key).Scan(&blob)
	if err != nil {
		return nil, false
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, false
	}
	c.mem.Add(key, vec)
	return cloneVector(vec), true
}

// Put stores vec under key. Disk write failures are returned but the memory
// copy is kept.
func (c *VectorCache) Put(key, modelID string, vec []float32) error {
	c.mem.Add(key, cloneVector(vec))
	if c.db == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO embeddings (key, model, dim, vector) VALUES (?, ?, ?, ?)`,
		key, modelID, len(vec), encodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("store vector: %w", err)
	}
	return nil
}

// Len reports the number of vectors held in memory.
func (c *VectorCache) Len() int {
	return c.mem.Len()
}

// Close releases the SQLite handle.
func (c *VectorCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	off := 4
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("vector blob too small")
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("vector length mismatch")
	}
	vec := make([]float32, length)
	for i := 0; i < length; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, nil
}
