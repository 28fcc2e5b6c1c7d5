package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/face-registry/internal/database"
)

const (
	// errDuplicateEntry is the MySQL/MariaDB error number for unique key violations.
	errDuplicateEntry = 1062

	// enrollLockName is the named lock that serializes enrollments.
	enrollLockName = "face_registry_enroll"

	// enrollLockTimeout is how long (seconds) an enrollment waits for the lock.
	enrollLockTimeout = 10
)

const identityColumns = `id, name, descriptor_json, created_at, last_access_at, access_count`

// IdentityRepository stores identities in MariaDB with descriptors as JSON text.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new MariaDB identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanIdentityRow scans a row. An undecodable descriptor is left nil so the
// matcher treats the record as infinitely far instead of failing the scan.
func scanIdentityRow(row scanner) (database.EnrolledRecord, error) {
	var rec database.EnrolledRecord
	var raw string
	if err := row.Scan(&rec.ID, &rec.Name, &raw, &rec.CreatedAt, &rec.LastAccessAt, &rec.AccessCount); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Descriptor); err != nil {
		log.Printf("Warning: identity %q has an unreadable descriptor: %v", rec.Name, err)
		rec.Descriptor = nil
	}
	return rec, nil
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySnapshot(ctx context.Context, q rowQuerier) ([]database.EnrolledRecord, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at, name`)
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
	return querySnapshot(ctx, r.pool.db)
}

// Get retrieves a record by name, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, name string) (*database.EnrolledRecord, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE name = ?`, name)
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
	rows, err := r.pool.db.QueryContext(ctx, `
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
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Enroll holds a named lock on a dedicated connection while the guard
// inspects the snapshot and the insert commits.
func (r *IdentityRepository) Enroll(ctx context.Context, rec *database.EnrolledRecord, guard database.EnrollGuard) (bool, error) {
	conn, err := r.pool.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", enrollLockName, enrollLockTimeout).Scan(&acquired); err != nil {
		return false, fmt.Errorf("acquire enrollment lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		return false, errors.New("timed out waiting for enrollment lock")
	}
	defer conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", enrollLockName) //nolint:errcheck

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	snapshot, err := querySnapshot(ctx, tx)
	if err != nil {
		return false, err
	}

	ok, err := guard(snapshot)
	if err != nil || !ok {
		return false, err
	}

	data, err := json.Marshal(rec.Descriptor)
	if err != nil {
		return false, fmt.Errorf("marshal descriptor: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, name, descriptor_json, created_at, last_access_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, data, rec.CreatedAt.UTC(), rec.LastAccessAt.UTC(), rec.AccessCount)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
			return false, database.ErrNameTaken
		}
		return false, fmt.Errorf("insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit enrollment: %w", err)
	}
	return true, nil
}

// Touch records a successful verification.
func (r *IdentityRepository) Touch(ctx context.Context, name string, at time.Time) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE identities
		SET last_access_at = ?, access_count = access_count + 1
		WHERE name = ?
	`, at.UTC(), name)
	if err != nil {
		return fmt.Errorf("touch identity: %w", err)
	}
	return requireAffected(result)
}

// Delete removes the record enrolled under name.
func (r *IdentityRepository) Delete(ctx context.Context, name string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM identities WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(result)
}

// Close closes the underlying pool.
func (r *IdentityRepository) Close() error {
	return r.pool.Close()
}

// requireAffected maps zero affected rows to ErrNotFound.
// Touch always changes access_count, so MySQL's "unchanged rows" quirk does not apply.
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
