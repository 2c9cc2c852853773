package storage

import (
	"errors"
	"fmt"
	"strings"

	"todoboard-backend/internal/config"
	"todoboard-backend/internal/db"
)

// KV is a string key/value store with browser localStorage semantics:
// a missing key is not an error, it is reported with ok=false.
type KV interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

var ErrUnknownDriver = errors.New("unknown storage driver")

// Open builds the KV backend selected by cfg.StorageDriver.
// The returned close func releases the backend (no-op for memory/file).
func Open(cfg *config.Config) (KV, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.StorageDriver) {
	case "memory":
		return NewMemory(), noop, nil

	case "", "file":
		fs, err := NewFile(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil

	case "sqlite":
		database, err := db.Connect(db.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("connect sqlite: %w", err)
		}
		kv, err := NewSQL(database, db.DriverSQLite)
		if err != nil {
			database.Close()
			return nil, nil, err
		}
		return kv, database.Close, nil

	case "postgres":
		database, err := db.Connect(db.DriverPostgres, cfg.ConnString())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		kv, err := NewSQL(database, db.DriverPostgres)
		if err != nil {
			database.Close()
			return nil, nil, err
		}
		return kv, database.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
}

type prefixed struct {
	kv     KV
	prefix string
}

// WithPrefix namespaces every key of kv under prefix.
func WithPrefix(kv KV, prefix string) KV {
	return prefixed{kv: kv, prefix: prefix}
}

func (p prefixed) GetItem(key string) (string, bool, error) {
	return p.kv.GetItem(p.prefix + key)
}

func (p prefixed) SetItem(key, value string) error {
	return p.kv.SetItem(p.prefix+key, value)
}

func (p prefixed) RemoveItem(key string) error {
	return p.kv.RemoveItem(p.prefix + key)
}
