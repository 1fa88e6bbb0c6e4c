package index

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/jlrickert/pubkit/pkg/publish"
)

// BadgerStore keeps records in an embedded Badger database. Keys are
// "<collection>:<url>", values are JSON documents.
type BadgerStore struct {
	db         *badger.DB
	collection string
}

// OpenBadger opens the Badger database at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

// NewBadgerStore returns a store for collection backed by db. The caller
// owns db.
func NewBadgerStore(db *badger.DB, collection string) *BadgerStore {
	return &BadgerStore{db: db, collection: collection}
}

func (s *BadgerStore) Name() string { return "badger" }

func (s *BadgerStore) key(url string) []byte {
	return []byte(s.collection + ":" + url)
}

func (s *BadgerStore) InsertOne(ctx context.Context, rec *publish.Record) error {
	url := rec.URL()
	if url == "" {
		return publish.NewStoreError(s.Name(), "insertOne", http.StatusBadRequest, errors.New("record has no url"))
	}
	doc, err := publish.MarshalRecord(rec)
	if err != nil {
		return publish.NewStoreError(s.Name(), "insertOne", 0, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(url))
		if err == nil {
			return ErrDuplicate
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(s.key(url), doc)
	})
	return s.wrap("insertOne", err)
}

func (s *BadgerStore) FindOne(ctx context.Context, q publish.Query) (*publish.Record, error) {
	var rec *publish.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.get(txn, q.URL)
		return err
	})
	if err != nil {
		return nil, s.wrap("findOne", err)
	}
	return rec, nil
}

// FindOneAndUpdate applies u inside one read-write transaction. A concurrent
// writer to the same key makes the commit fail with a conflict.
func (s *BadgerStore) FindOneAndUpdate(ctx context.Context, q publish.Query, u publish.Update) (*publish.Record, error) {
	var rec *publish.Record
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = s.get(txn, q.URL)
		if err != nil || rec == nil {
			return err
		}
		publish.ApplyUpdate(rec, u)
		doc, err := publish.MarshalRecord(rec)
		if err != nil {
			return err
		}
		url := rec.URL()
		if url == "" || url == q.URL {
			return txn.Set(s.key(q.URL), doc)
		}
		if _, err := txn.Get(s.key(url)); err == nil {
			return ErrDuplicate
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Delete(s.key(q.URL)); err != nil {
			return err
		}
		return txn.Set(s.key(url), doc)
	})
	if err != nil {
		return nil, s.wrap("findOneAndUpdate", err)
	}
	return rec, nil
}

func (s *BadgerStore) Delete(ctx context.Context, q publish.Query) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.key(q.URL)); err != nil {
			if err == badger.ErrKeyNotFound {
				return publish.NewNotFoundError(q.URL)
			}
			return err
		}
		return txn.Delete(s.key(q.URL))
	})
	if publish.IsNotFound(err) {
		return err
	}
	return s.wrap("delete", err)
}

// get reads the record at url. A missing key yields (nil, nil).
func (s *BadgerStore) get(txn *badger.Txn, url string) (*publish.Record, error) {
	item, err := txn.Get(s.key(url))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec *publish.Record
	err = item.Value(func(val []byte) error {
		var err error
		rec, err = publish.UnmarshalRecord(val)
		return err
	})
	return rec, err
}

func (s *BadgerStore) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), errors.Is(err, badger.ErrConflict):
		return publish.NewStoreError(s.Name(), op, http.StatusConflict, err)
	default:
		return publish.NewStoreError(s.Name(), op, 0, err)
	}
}
