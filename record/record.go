/*
Package record keeps a history of successful builds in a SQLite database.

Every build stores one row per produced asset along with a fingerprint of the
source file it was compiled from. The history is informational only; it is
never consulted to skip work.
*/
package record

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3" // driver
	"github.com/pkg/errors"
)

// Asset kinds
const (
	KindImage = "image"
	KindLevel = "level"
)

// Asset is one output of a build.
type Asset struct {
	Name     string
	Kind     string
	Source   string
	Checksum string
	Width    int
	Height   int
	// Colors is the palette size for images and zero for levels
	Colors int
}

// Build is one successful run.
type Build struct {
	ID       int64
	Started  time.Time
	Finished time.Time
	Assets   []Asset
}

// DB is the build history database.
type DB struct {
	db *sql.DB
}

// Open opens, and if necessary creates, the database in file.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS build (id INTEGER PRIMARY KEY NOT NULL, started INTEGER NOT NULL, finished INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, build_id INTEGER NOT NULL, name TEXT NOT NULL, kind TEXT NOT NULL, source TEXT NOT NULL, checksum TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, colors INTEGER NOT NULL, FOREIGN KEY(build_id) REFERENCES build(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// AddBuild stores b and all of its assets, returning the new build ID.
func (db *DB) AddBuild(b *Build) (int64, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec("INSERT INTO build (started, finished) VALUES (?, ?)", b.Started.UnixNano(), b.Finished.UnixNano())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, a := range b.Assets {
		if _, err := tx.Exec("INSERT INTO asset (build_id, name, kind, source, checksum, width, height, colors) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", id, a.Name, a.Kind, a.Source, a.Checksum, a.Width, a.Height, a.Colors); err != nil {
			return 0, errors.Wrapf(err, "record %s %s", a.Kind, a.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	b.ID = id

	return id, nil
}

// LatestBuild returns the most recent build, or nil if there are none.
func (db *DB) LatestBuild() (*Build, error) {
	var id, started, finished int64
	switch err := db.db.QueryRow("SELECT id, started, finished FROM build ORDER BY id DESC LIMIT 1").Scan(&id, &started, &finished); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, err
	}

	b := &Build{
		ID:       id,
		Started:  time.Unix(0, started).UTC(),
		Finished: time.Unix(0, finished).UTC(),
	}

	rows, err := db.db.Query("SELECT name, kind, source, checksum, width, height, colors FROM asset WHERE build_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Name, &a.Kind, &a.Source, &a.Checksum, &a.Width, &a.Height, &a.Colors); err != nil {
			return nil, err
		}
		b.Assets = append(b.Assets, a)
	}

	return b, rows.Err()
}

// Checksum returns the fingerprint of b as 16 hex characters.
func Checksum(b []byte) string {
	h := xxhash.New()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// ChecksumFile returns the fingerprint of the file at path.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
