// Package integration exercises the full stack end to end: config file,
// connection, schema registration, and the repository API over a real
// SQLite database on disk.
package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelf/pkg/persist"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// Book is the entity under test. It covers the tag surface the engine
// supports: an auto key, a nullable column, and a timestamp.
type Book struct {
	ID          int64     `db:"id,pk,auto"`
	Title       string    `db:"title,notnull"`
	Author      string    `db:"author"`
	Pages       int       `db:"pages"`
	Notes       *string   `db:"notes"`
	PublishedAt time.Time `db:"published_at"`
}

// Shelf is a second entity with a generated string key, exercising the
// UUID fill path.
type Shelf struct {
	Key   string `db:"key,pk,gen"`
	Label string `db:"label"`
}

var (
	bookTable  = schema.MustRegister[Book]("book")
	shelfTable = schema.MustRegister[Shelf]("shelf")
)

// setupStore opens a connection to a fresh database file in an isolated
// temp directory and creates the test tables. Each test gets its own
// database for isolation.
func setupStore(t *testing.T, opts ...persist.Option) *persist.Connection {
	t.Helper()
	cfg := persist.Config{
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "store.db"),
		Dialect: "sqlite",
	}
	conn, err := persist.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	for _, tbl := range []*schema.Table{bookTable, shelfTable} {
		if _, err := conn.Exec(schema.CreateTableSQL(tbl, schema.DialectSQLite)); err != nil {
			t.Fatalf("creating table %s: %v", tbl.Name(), err)
		}
	}
	return conn
}

// mustBookRepo builds a repository or fails the test.
func mustBookRepo(t *testing.T, conn *persist.Connection) *persist.Repository[Book] {
	t.Helper()
	repo, err := persist.NewRepository[Book](conn)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

// mustInsert writes a book and returns its assigned ID.
func mustInsert(t *testing.T, repo *persist.Repository[Book], b Book) int64 {
	t.Helper()
	if _, err := repo.Insert(&b, false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("insert did not backfill the auto key")
	}
	return b.ID
}

// writeConfigFile writes a shelf.yaml pointing at a database inside dir
// and returns its path.
func writeConfigFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "shelf.yaml")
	content := "driver: sqlite\ndsn: " + filepath.Join(dir, "store.db") + "\ndialect: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// readConfig parses a shelf.yaml into a connection config.
func readConfig(path string) (persist.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return persist.Config{}, err
	}
	var cfg persist.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return persist.Config{}, err
	}
	return cfg, cfg.Validate()
}
