package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

// erDupEntry is the MySQL error number for a duplicate key
const erDupEntry = 1062

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// MySQLStore keeps blobs in a table whose primary key is the blob name.
// A duplicate key on insert means another process published first.
type MySQLStore struct {
	db    *sql.DB
	table string
	owner string
}

// OpenMySQL connects to the database described by cfg
func OpenMySQL(cfg *mysql.Config, table, owner string) (*MySQLStore, error) {
	cfg.ParseTime = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	store, err := NewMySQLStore(db, table, owner)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewMySQLStore wraps an open database handle
func NewMySQLStore(db *sql.DB, table, owner string) (*MySQLStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &MySQLStore{db: db, table: table, owner: owner}, nil
}

// EnsureSchema creates the blob table if it does not exist
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"name VARCHAR(255) NOT NULL PRIMARY KEY, "+
		"owner VARCHAR(64) NOT NULL, "+
		"manifest LONGBLOB NOT NULL, "+
		"created_at DATETIME(6) NOT NULL)", s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create blob table: %w", err)
	}
	return nil
}

// Create publishes the files under name unless a blob with that name exists
func (s *MySQLStore) Create(ctx context.Context, name string, files []File) (Status, error) {
	m, err := newManifest(name, s.owner, files)
	if err != nil {
		return StatusOK, err
	}
	data, err := m.encode()
	if err != nil {
		return StatusOK, err
	}

	query := fmt.Sprintf("INSERT INTO `%s` (name, owner, manifest, created_at) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, query, name, m.Owner, data, m.CreatedAt); err != nil {
		if isDuplicateEntry(err) {
			return StatusConflict, nil
		}
		return StatusOK, fmt.Errorf("insert blob %s: %w", name, err)
	}
	return StatusOK, nil
}

// Fetch returns the handle of the blob published under name
func (s *MySQLStore) Fetch(ctx context.Context, name string) (Handle, Status, error) {
	if err := ValidateName(name); err != nil {
		return Handle{}, StatusOK, err
	}
	var owner string
	var createdAt time.Time
	query := fmt.Sprintf("SELECT owner, created_at FROM `%s` WHERE name = ?", s.table)
	err := s.db.QueryRowContext(ctx, query, name).Scan(&owner, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Handle{}, StatusNotFound, nil
	}
	if err != nil {
		return Handle{}, StatusOK, fmt.Errorf("query blob %s: %w", name, err)
	}
	return Handle{Name: name, ID: name, Owner: owner, CreatedAt: createdAt}, StatusOK, nil
}

// Download writes the files of the blob into dir
func (s *MySQLStore) Download(ctx context.Context, h Handle, dir string) error {
	var data []byte
	query := fmt.Sprintf("SELECT manifest FROM `%s` WHERE name = ?", s.table)
	if err := s.db.QueryRowContext(ctx, query, h.ID).Scan(&data); err != nil {
		return fmt.Errorf("read blob %s: %w", h.Name, err)
	}
	m, err := decodeManifest(data)
	if err != nil {
		return err
	}
	return m.extract(dir)
}

// Close closes the database handle
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}
