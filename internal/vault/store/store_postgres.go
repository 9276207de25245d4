package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
	txcontext "tokenvault/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists vault_pools and vault_access rows. A store built
// with NewPostgresTx is bound to one transaction and reads access rows with
// FOR UPDATE, so the caller holds the row lock until commit.
type PostgresStore struct {
	db     *sql.DB
	tx     *sql.Tx
	forUpd bool
}

// NewPostgres constructs a PostgreSQL-backed vault store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx binds a store to tx and locks the access rows it reads.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx, forUpd: true}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Querier {
	if s.tx != nil {
		return s.tx
	}
	return txcontext.Conn(ctx, s.db)
}

func (s *PostgresStore) CreatePool(ctx context.Context, pool *models.PoolRecord) error {
	query := `
		INSERT INTO vault_pools (asset, address, bump, holder, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		pool.Asset[:], pool.Address[:], int16(pool.Bump), pool.Holder[:], pool.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pool for asset %s: %w", pool.Asset, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPool(ctx context.Context, asset id.Address) (*models.PoolRecord, error) {
	query := `
		SELECT asset, address, bump, holder, created_at
		FROM vault_pools
		WHERE asset = $1
	`
	var (
		rawAsset, rawAddr, rawHolder []byte
		bump                         int16
		pool                         models.PoolRecord
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, asset[:]).Scan(&rawAsset, &rawAddr, &bump, &rawHolder, &pool.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pool for asset %s: %w", asset, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find pool: %w", err)
	}
	if err := decodeAddresses(
		addrField{rawAsset, &pool.Asset},
		addrField{rawAddr, &pool.Address},
		addrField{rawHolder, &pool.Holder},
	); err != nil {
		return nil, fmt.Errorf("decode pool: %w", err)
	}
	pool.Bump = uint8(bump)
	return &pool, nil
}

func (s *PostgresStore) CreateAccess(ctx context.Context, record *models.AccessRecord) error {
	query := `
		INSERT INTO vault_access (address, asset, owner, owed, bump, created_at, updated_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.Address[:], record.Asset[:], record.Owner[:], strconv.FormatUint(record.Owed, 10),
		int16(record.Bump), record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("access record %s: %w", record.Address, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert access record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAccess(ctx context.Context, address id.Address) (*models.AccessRecord, error) {
	query := `
		SELECT address, asset, owner, owed::text, bump, created_at, updated_at
		FROM vault_access
		WHERE address = $1
	`
	if s.forUpd {
		query += ` FOR UPDATE`
	}
	record, err := scanAccess(s.execer(ctx).QueryRowContext(ctx, query, address[:]))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access record %s: %w", address, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find access record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) UpdateOwed(ctx context.Context, address id.Address, owed uint64, updatedAt time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE vault_access SET owed = $2::text::numeric, updated_at = $3 WHERE address = $1`,
		address[:], strconv.FormatUint(owed, 10), updatedAt)
	if err != nil {
		return fmt.Errorf("update owed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update owed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("access record %s: %w", address, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListAccessByAsset(ctx context.Context, asset id.Address) ([]*models.AccessRecord, error) {
	query := `
		SELECT address, asset, owner, owed::text, bump, created_at, updated_at
		FROM vault_access
		WHERE asset = $1
		ORDER BY address
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, asset[:])
	if err != nil {
		return nil, fmt.Errorf("list access records: %w", err)
	}
	defer rows.Close()
	var out []*models.AccessRecord
	for rows.Next() {
		record, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list access records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccess(row scanner) (*models.AccessRecord, error) {
	var (
		rawAddr, rawAsset, rawOwner []byte
		owed                        string
		bump                        int16
		record                      models.AccessRecord
	)
	if err := row.Scan(&rawAddr, &rawAsset, &rawOwner, &owed, &bump, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeAddresses(
		addrField{rawAddr, &record.Address},
		addrField{rawAsset, &record.Asset},
		addrField{rawOwner, &record.Owner},
	); err != nil {
		return nil, err
	}
	var err error
	if record.Owed, err = strconv.ParseUint(owed, 10, 64); err != nil {
		return nil, fmt.Errorf("decode owed: %w", err)
	}
	record.Bump = uint8(bump)
	return &record, nil
}

type addrField struct {
	raw []byte
	dst *id.Address
}

func decodeAddresses(fields ...addrField) error {
	for _, f := range fields {
		a, err := id.AddressFromBytes(f.raw)
		if err != nil {
			return err
		}
		*f.dst = a
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
