// Package mysql backs the document store with a single gorm-managed table.
// Optimistic concurrency uses a version column: every transactional write is
// applied with a compare-and-swap on the version read, and the whole
// transaction function is retried when any swap misses.
package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"keyshop/internal/store"
)

const maxAttempts = 5

type DocumentRow struct {
	Collection string         `gorm:"primaryKey;size:32"`
	DocID      string         `gorm:"primaryKey;size:191;column:doc_id"`
	Seq        uint64         `gorm:"autoIncrement;uniqueIndex"`
	Version    uint64         `gorm:"not null"`
	Payload    datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (DocumentRow) TableName() string { return "documents" }

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&DocumentRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenFromEnv connects using the MYSQL_* environment variables and migrates
// the documents table.
func OpenFromEnv() (*Store, error) {
	user := os.Getenv("MYSQL_USER")
	pass := os.Getenv("MYSQL_PASSWORD")
	host := os.Getenv("MYSQL_HOST")
	port := os.Getenv("MYSQL_PORT")
	dbname := os.Getenv("MYSQL_DATABASE")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, pass, host, port, dbname)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		// Duplicate-key errors must surface as gorm.ErrDuplicatedKey for the
		// insert CAS below.
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

func (s *Store) Get(ctx context.Context, col, id string, out any) error {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", col, id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(row.Payload, out)
}

func (s *Store) List(ctx context.Context, col string) ([]store.Document, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", col).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.Document{ID: row.DocID, Payload: row.Payload})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, col, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", col, id).
		Delete(&DocumentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &sqlTx{store: s, reads: make(map[string]uint64), pending: make(map[string]int)}
		if err := fn(tx); err != nil {
			return err
		}
		err := s.commit(ctx, tx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return store.ErrConflict
}

type write struct {
	collection string
	id         string
	payload    []byte
	delete     bool
}

type sqlTx struct {
	store   *Store
	reads   map[string]uint64 // collection/id -> version observed, 0 for absent
	writes  []write
	pending map[string]int
}

func key(col, id string) string { return col + "/" + id }

func (t *sqlTx) Get(ctx context.Context, col, id string, out any) error {
	if i, ok := t.pending[key(col, id)]; ok {
		w := t.writes[i]
		if w.delete {
			return store.ErrNotFound
		}
		return json.Unmarshal(w.payload, out)
	}

	var row DocumentRow
	err := t.store.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", col, id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t.reads[key(col, id)] = 0
			return store.ErrNotFound
		}
		return err
	}
	t.reads[key(col, id)] = row.Version
	return json.Unmarshal(row.Payload, out)
}

func (t *sqlTx) Set(col, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.queue(write{collection: col, id: id, payload: payload})
	return nil
}

func (t *sqlTx) Delete(col, id string) {
	t.queue(write{collection: col, id: id, delete: true})
}

func (t *sqlTx) queue(w write) {
	k := key(w.collection, w.id)
	if i, ok := t.pending[k]; ok {
		t.writes[i] = w
		return
	}
	t.pending[k] = len(t.writes)
	t.writes = append(t.writes, w)
}

func (s *Store) commit(ctx context.Context, tx *sqlTx) error {
	return s.db.WithContext(ctx).Transaction(func(dtx *gorm.DB) error {
		// Re-check every read that is not also written; written documents
		// are checked by their CAS below.
		for k, seen := range tx.reads {
			if _, written := tx.pending[k]; written {
				continue
			}
			col, id := splitKey(k)
			var versions []uint64
			err := dtx.Model(&DocumentRow{}).
				Where("collection = ? AND doc_id = ?", col, id).
				Pluck("version", &versions).Error
			if err != nil {
				return err
			}
			var current uint64
			if len(versions) > 0 {
				current = versions[0]
			}
			if current != seen {
				return store.ErrConflict
			}
		}

		for _, w := range tx.writes {
			seen := tx.reads[key(w.collection, w.id)]
			if w.delete {
				res := dtx.Where("collection = ? AND doc_id = ? AND version = ?", w.collection, w.id, seen).
					Delete(&DocumentRow{})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 && seen != 0 {
					return store.ErrConflict
				}
				continue
			}
			if seen == 0 {
				row := DocumentRow{Collection: w.collection, DocID: w.id, Version: 1, Payload: w.payload}
				if err := dtx.Create(&row).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return store.ErrConflict
					}
					return err
				}
				continue
			}
			res := dtx.Model(&DocumentRow{}).
				Where("collection = ? AND doc_id = ? AND version = ?", w.collection, w.id, seen).
				Updates(map[string]any{"version": seen + 1, "payload": w.payload})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return store.ErrConflict
			}
		}
		return nil
	})
}

func splitKey(k string) (string, string) {
	for i := 0; i < len(k); i++ {
		if k[i] == '/' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}
