package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

const identityColumns = `id, name, descriptor, created_at, last_access_at, access_count`

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// IdentityRepository provides PostgreSQL-backed storage of enrolled identities.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentityRow(row scanner) (database.EnrolledRecord, error) {
	var rec database.EnrolledRecord
	var vec pgvector.Vector
	if err := row.Scan(&rec.ID, &rec.Name, &vec, &rec.CreatedAt, &rec.LastAccessAt, &rec.AccessCount); err != nil {
		return rec, err
	}
	rec.Descriptor = vec.Slice()
	return rec, nil
}

func querySnapshot(ctx context.Context, q rowQuerier) ([]database.EnrolledRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var records []database.EnrolledRecord
	for rows.Next() {
		rec, err := scanIdentityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return records, nil
}

// Snapshot returns every enrolled record ordered by creation time, then name.
func (r *IdentityRepository) Snapshot(ctx context.Context) ([]database.EnrolledRecord, error) {
	return querySnapshot(ctx, r.pool.DB())
}

// Get retrieves a record by name, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, name string) (*database.EnrolledRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE name = $1`, name)
	rec, err := scanIdentityRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &rec, nil
}

// List returns all records without descriptors, ordered by name.
func (r *IdentityRepository) List(ctx context.Context) ([]database.UserSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at, last_access_at, access_count
		FROM identities
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var users []database.UserSummary
	for rows.Next() {
		var u database.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.LastAccessAt, &u.AccessCount); err != nil {
			return nil, fmt.Errorf("scan identity summary: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity summaries: %w", err)
	}
	return users, nil
}

// Count returns the total number of enrolled identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Enroll runs guard against a snapshot read under a table lock and inserts
// rec in the same transaction. SHARE ROW EXCLUSIVE conflicts with itself, so
// concurrent enrollments queue behind each other while plain reads continue.
func (r *IdentityRepository) Enroll(ctx context.Context, rec *database.EnrolledRecord, guard database.EnrollGuard) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "LOCK TABLE identities IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return false, fmt.Errorf("lock identities: %w", err)
	}

	snapshot, err := querySnapshot(ctx, tx)
	if err != nil {
		return false, err
	}

	ok, err := guard(snapshot)
	if err != nil || !ok {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, name, descriptor, created_at, last_access_at, access_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.Name, pgvector.NewVector(rec.Descriptor), rec.CreatedAt, rec.LastAccessAt, rec.AccessCount)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return false, database.ErrNameTaken
		}
		return false, fmt.Errorf("insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit enrollment: %w", err)
	}
	return true, nil
}

// Touch records a successful verification in a single atomic update.
func (r *IdentityRepository) Touch(ctx context.Context, name string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET last_access_at = $2, access_count = access_count + 1
		WHERE name = $1
	`, name, at)
	if err != nil {
		return fmt.Errorf("touch identity: %w", err)
	}
	return requireAffected(result)
}

// Delete removes the record enrolled under name.
func (r *IdentityRepository) Delete(ctx context.Context, name string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM identities WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(result)
}

// Close closes the underlying pool.
func (r *IdentityRepository) Close() error {
	return r.pool.Close()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
