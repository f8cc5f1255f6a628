package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

const commitsBucket = "commits"

// CommitCache persists each repository's extracted commit list between runs
// so warm invocations skip the history walk. Entries are keyed by repository
// path and validated against the checksum of the repository's ref tips: any
// ref movement invalidates the entry.
type CommitCache struct {
	db  *bolt.DB
	log *logrus.Logger
}

// entry is the stored value for one repository.
type entry struct {
	RefsChecksum string          `json:"refs_checksum"`
	CachedAt     time.Time       `json:"cached_at"`
	Commits      []models.Commit `json:"commits"`
}

// Open opens the cache database at path, creating parent directories as
// needed. The open times out instead of blocking when another process holds
// the file lock.
func Open(path string, log *logrus.Logger) (*CommitCache, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &CommitCache{db: db, log: log}, nil
}

// Close releases the underlying database.
func (c *CommitCache) Close() error {
	return c.db.Close()
}

// Get returns the cached commits for repoPath if an entry exists and its
// stored checksum still matches refsChecksum. Any read or decode problem is
// treated as a miss.
func (c *CommitCache) Get(repoPath, refsChecksum string) ([]models.Commit, bool) {
	var e entry
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(commitsBucket))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		data := bucket.Get([]byte(repoPath))
		if data == nil {
			return bolt.ErrBucketNotFound
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, false
	}
	if e.RefsChecksum != refsChecksum {
		c.log.WithFields(logrus.Fields{"repository": repoPath}).Debug("commit cache entry stale")
		return nil, false
	}
	return e.Commits, true
}

// Put stores the commit list for repoPath under the given ref checksum,
// replacing any previous entry.
func (c *CommitCache) Put(repoPath, refsChecksum string, commits []models.Commit) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(commitsBucket))
		if err != nil {
			return err
		}
		data, err := json.Marshal(entry{
			RefsChecksum: refsChecksum,
			CachedAt:     time.Now(),
			Commits:      commits,
		})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(repoPath), data)
	})
}
