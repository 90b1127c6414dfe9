package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/pkg/distlock"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/service/application"
)

// ApplicationRepo stores each job application as a JSONB document in a
// table of (id, doc, seq). seq preserves insertion order for listings.
type ApplicationRepo struct {
	db    *sql.DB
	table string
}

// Open connects to url, verifies the connection and makes sure the
// collection table exists.
func Open(ctx context.Context, url, table string) (*ApplicationRepo, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := NewApplicationRepo(db, table)
	if err := repo.EnsureCollection(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("postgres store ready", "table", repo.table)
	return repo, nil
}

// NewApplicationRepo creates a Postgres-backed application store.
func NewApplicationRepo(db *sql.DB, table string) *ApplicationRepo {
	if table == "" {
		table = domain.Collection
	}
	return &ApplicationRepo{db: db, table: table}
}

// Close releases the connection pool.
func (r *ApplicationRepo) Close() error { return r.db.Close() }

func (r *ApplicationRepo) Name() string { return "postgres" }

func (r *ApplicationRepo) ident() string { return pq.QuoteIdentifier(r.table) }

// EnsureCollection creates the collection table if it is missing. The DDL
// runs under an advisory lock so instances starting together do not race on
// CREATE TABLE.
func (r *ApplicationRepo) EnsureCollection(ctx context.Context) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.table, err)
	}
	defer conn.Close()

	lock := distlock.NewPGAdvisoryLock(conn, "schema:"+r.table)
	if err := distlock.Wait(ctx, lock, 50, 100*time.Millisecond); err != nil {
		return fmt.Errorf("create collection %s: %w", r.table, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("releasing schema lock", "table", r.table, "error", err)
		}
	}()

	_, err = conn.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id  UUID PRIMARY KEY,
			doc JSONB NOT NULL,
			seq BIGSERIAL
		)`, r.ident()))
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.table, err)
	}
	return nil
}

func (r *ApplicationRepo) Insert(ctx context.Context, doc domain.Document) (string, error) {
	body := doc.Clone().Compact()
	delete(body, domain.IDKey)
	data, err := encode(body)
	if err != nil {
		return "", err
	}

	id := application.NewID()
	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, r.ident()),
		id, string(data))
	if err != nil {
		return "", fmt.Errorf("insert application: %w", err)
	}
	return id, nil
}

// Find translates the filter into JSONB predicates. The text search is an
// ILIKE over company, position and notes, or any element of tags when tags
// is an array.
func (r *ApplicationRepo) Find(ctx context.Context, f domain.Filter, limit int) ([]domain.Document, error) {
	q := fmt.Sprintf(`SELECT id, doc FROM %s WHERE TRUE`, r.ident())
	var args []interface{}
	idx := 1

	if f.Status != "" {
		q += fmt.Sprintf(" AND doc->>'status' = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		p := fmt.Sprintf("$%d", idx)
		q += fmt.Sprintf(` AND (doc->>'company' ILIKE %[1]s OR doc->>'position' ILIKE %[1]s OR doc->>'notes' ILIKE %[1]s
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(
				CASE WHEN jsonb_typeof(doc->'tags') = 'array' THEN doc->'tags' ELSE '[]'::jsonb END
			) AS tag WHERE tag ILIKE %[1]s))`, p)
		args = append(args, "%"+escapeLike(f.Query)+"%")
		idx++
	}
	q += " ORDER BY seq"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		doc, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id string) (domain.Document, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, r.ident()), id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return decode(id, raw)
}

// UpdateByID merges Set into the document and strips Unset keys in one
// statement.
func (r *ApplicationRepo) UpdateByID(ctx context.Context, id string, patch domain.Patch) error {
	id, err := application.ValidateID(id)
	if err != nil {
		return err
	}

	set := domain.Document{}
	var unset []string
	for k, v := range patch.Set {
		if k == domain.IDKey {
			continue
		}
		if v == nil {
			unset = append(unset, k)
			continue
		}
		set[k] = v
	}
	unset = append(unset, patch.Unset...)

	data, err := encode(set)
	if err != nil {
		return err
	}
	if unset == nil {
		unset = []string{}
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = (doc || $2::jsonb) - $3::text[] WHERE id = $1`, r.ident()),
		id, string(data), pq.Array(unset))
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if n == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.ident()), id)
	if err != nil {
		return 0, fmt.Errorf("delete application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete application: %w", err)
	}
	return n, nil
}

func (r *ApplicationRepo) CollectionNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

func encode(doc domain.Document) ([]byte, error) {
	plain := make(map[string]any, len(doc))
	for k, v := range doc {
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		plain[k] = v
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("encode application: %w", err)
	}
	return data, nil
}

func decode(id string, raw []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode application %s: %w", id, err)
	}
	if doc == nil {
		doc = domain.Document{}
	}
	doc[domain.IDKey] = id
	return doc, nil
}
