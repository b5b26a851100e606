package mgmt

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

var (
	bucketSnapshots  = []byte("snapshots")
	bucketRestoreJobs = []byte("restore_jobs")
	bucketCompliance = []byte("compliance_records")
	bucketCostEntries = []byte("cost_entries")
	bucketTenants    = []byte("tenants")
	bucketCA         = []byte("ca")

	allBuckets = [][]byte{
		bucketSnapshots,
		bucketRestoreJobs,
		bucketCompliance,
		bucketCostEntries,
		bucketTenants,
		bucketCA,
	}
)

// Catalog is the bucket-per-entity persistence layer backing the
// management plane. Entities are JSON-marshaled values keyed by id
// within a named bucket.
type Catalog struct {
	db     *bolt.DB
	logger zerolog.Logger
}

// OpenCatalog opens (creating if necessary) the management-plane
// database under dataDir.
func OpenCatalog(dataDir string) (*Catalog, error) {
	dbPath := filepath.Join(dataDir, "claudefs-mgmt.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open management catalog: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger := log.WithComponent("mgmt")
	logger.Info().Str("path", dbPath).Msg("management catalog opened")
	return &Catalog{db: db, logger: logger}, nil
}

func (c *Catalog) Close() error {
	c.logger.Info().Msg("management catalog closed")
	return c.db.Close()
}

func (c *Catalog) put(bucket []byte, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", bucket, err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(id), data)
	})
}

func (c *Catalog) get(bucket []byte, id string, v interface{}) error {
	return c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(id))
		if data == nil {
			return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, fmt.Sprintf("%s/%s", bucket, id))
		}
		return json.Unmarshal(data, v)
	})
}

func (c *Catalog) delete(bucket []byte, id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(id))
	})
}

// forEach decodes every value in bucket via decode, stopping early if
// decode returns an error.
func (c *Catalog) forEach(bucket []byte, decode func(k, v []byte) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(decode)
	})
}

var caKey = []byte("root")

// GetCA and SaveCA implement pkg/security's CAStore interface, storing
// the cluster certificate authority's serialized material as a single
// entry in bucketCA.
func (c *Catalog) GetCA() ([]byte, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCA).Get(caKey)
		if v == nil {
			return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, "ca")
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (c *Catalog) SaveCA(data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCA).Put(caKey, data)
	})
}
