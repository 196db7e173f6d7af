package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/grocery-ledger/internal/learned"
)

const (
	receiptBucketName = "receipts"
	packBucketName    = "learned_packs"
)

// DB defines the interface for database operations. Every record belongs to
// a user and is stored apart from other users' records.
type DB interface {
	// SaveReceipt saves a receipt to the database
	SaveReceipt(userID string, receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID
	GetReceipt(userID, id string) (*Receipt, error)

	// ListReceipts returns all receipts of a user
	ListReceipts(userID string) ([]*Receipt, error)

	// DeleteReceipt removes a receipt from the database
	DeleteReceipt(userID, id string) error

	// LoadPacks and UpsertPack persist learned pack sizes
	learned.Backend

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Top-level buckets hold
// one nested bucket per user.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptBucketName, packBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// userBucket returns the user's bucket under parent, or nil when the user
// has nothing stored yet.
func userBucket(tx *bbolt.Tx, parent, userID string) *bbolt.Bucket {
	return tx.Bucket([]byte(parent)).Bucket([]byte(userID))
}

func createUserBucket(tx *bbolt.Tx, parent, userID string) (*bbolt.Bucket, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	bucket, err := tx.Bucket([]byte(parent)).CreateBucketIfNotExists([]byte(userID))
	if err != nil {
		return nil, fmt.Errorf("creating bucket for user %s: %w", userID, err)
	}
	return bucket, nil
}

// SaveReceipt saves a receipt to the database
func (b *BoltDB) SaveReceipt(userID string, receipt *Receipt) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := createUserBucket(tx, receiptBucketName, userID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return bucket.Put([]byte(receipt.ID), data)
	})
}

// GetReceipt retrieves a receipt by ID
func (b *BoltDB) GetReceipt(userID, id string) (*Receipt, error) {
	var receipt *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		var data []byte
		if bucket := userBucket(tx, receiptBucketName, userID); bucket != nil {
			data = bucket.Get([]byte(id))
		}
		if data == nil {
			return fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns all receipts of a user
func (b *BoltDB) ListReceipts(userID string) ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, receiptBucketName, userID)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt from the database
func (b *BoltDB) DeleteReceipt(userID, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, receiptBucketName, userID)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(id))
	})
}

// LoadPacks returns every learned pack size of a user
func (b *BoltDB) LoadPacks(userID string) (map[string]learned.Entry, error) {
	entries := make(map[string]learned.Entry)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, packBucketName, userID)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var entry learned.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling learned pack %s: %w", k, err)
			}
			entries[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpsertPack writes one learned pack size
func (b *BoltDB) UpsertPack(userID, key string, entry learned.Entry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := createUserBucket(tx, packBucketName, userID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling learned pack: %w", err)
		}
		return bucket.Put([]byte(key), data)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
