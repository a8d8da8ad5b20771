package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var ErrNotFound = errors.New("workspace not found")

// Workspace - строка таблицы workspaces. Document - файл сохранения в JSON.
type Workspace struct {
	ID          string
	Name        string
	Document    []byte
	ActiveIndex int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Dialect - диалект плейсхолдеров.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// ============================================================
// Repository
// ============================================================

type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect, now: time.Now}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, w *Workspace) error {
	now := r.now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, r.rebind(`
        INSERT INTO workspaces (id, name, document, active_index, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `), w.ID, w.Name, string(w.Document), w.ActiveIndex, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Workspace, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
        SELECT id, name, document, active_index, created_at, updated_at
        FROM workspaces
        WHERE id = ?
    `), id)

	w, err := scanWorkspace(row.Scan, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List возвращает рабочие пространства без документа, новые первыми.
func (r *Repository) List(ctx context.Context) ([]Workspace, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, '', active_index, created_at, updated_at
        FROM workspaces
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	out := []Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// Save перезаписывает документ и активный индекс.
func (r *Repository) Save(ctx context.Context, id string, document []byte, activeIndex int) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`
        UPDATE workspaces SET document = ?, active_index = ?, updated_at = ?
        WHERE id = ?
    `), string(document), activeIndex, r.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return affected(res)
}

func (r *Repository) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`
        UPDATE workspaces SET name = ?, updated_at = ?
        WHERE id = ?
    `), name, r.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("rename workspace: %w", err)
	}
	return affected(res)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM workspaces WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWorkspace(scan func(dest ...any) error, withDocument bool) (*Workspace, error) {
	var (
		w                Workspace
		document         string
		created, updated int64
	)
	if err := scan(&w.ID, &w.Name, &document, &w.ActiveIndex, &created, &updated); err != nil {
		return nil, err
	}
	if withDocument {
		w.Document = []byte(document)
	}
	w.CreatedAt = time.UnixMilli(created).UTC()
	w.UpdatedAt = time.UnixMilli(updated).UTC()
	return &w, nil
}

// rebind заменяет "?" на "$n" для Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// ============================================================
// Connections
// ============================================================

// Open выбирает драйвер по DSN: postgres:// и postgresql:// - Postgres, иначе путь к sqlite.
func Open(dsn string) (*sql.DB, Dialect, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := OpenPostgres(dsn)
		return db, Postgres, err
	}
	db, err := OpenSQLite(dsn)
	return db, SQLite, err
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenPostgres открывает Postgres через pgx stdlib.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
