package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bribecast/internal/bribes"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertEpochSQL = `INSERT INTO bribe_epochs (
        platform,
        protocol,
        round,
        end_ts,
        proposal,
        bribed,
        bribes
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (platform, protocol, round) DO UPDATE
    SET
        end_ts   = EXCLUDED.end_ts,
        proposal = EXCLUDED.proposal,
        bribed   = EXCLUDED.bribed,
        bribes   = EXCLUDED.bribes;`

	listEpochsSQL = `SELECT
        platform,
        protocol,
        round,
        end_ts,
        proposal,
        bribed,
        bribes
    FROM bribe_epochs
    WHERE platform = $1
      AND protocol = $2
    ORDER BY round;`

	latestFinishedEpochSQL = `SELECT
        platform,
        protocol,
        round,
        end_ts,
        proposal,
        bribed,
        bribes
    FROM bribe_epochs
    WHERE platform = $1
      AND protocol = $2
      AND end_ts <= $3
    ORDER BY end_ts DESC
    LIMIT 1;`

	countEpochsSQL = `SELECT COUNT(*) FROM bribe_epochs WHERE platform = $1 AND protocol = $2;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// EpochStore defines persistence for the bribe ledger.
type EpochStore interface {
	UpsertEpoch(ctx context.Context, epoch bribes.PersistedEpoch) error
	ListEpochs(ctx context.Context, platform, protocol string) ([]bribes.PersistedEpoch, error)
	LatestFinishedEpoch(ctx context.Context, platform, protocol string, now time.Time) (bribes.PersistedEpoch, error)
	CountEpochs(ctx context.Context, platform, protocol string) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers for the scheduled runner.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// ErrNoFinishedEpoch signals that no stored epoch has ended yet.
var ErrNoFinishedEpoch = errors.New("storage: no finished epoch")

// Store persists epochs through a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertEpoch persists or overwrites one epoch keyed by
// (platform, protocol, round).
func (s *Store) UpsertEpoch(ctx context.Context, epoch bribes.PersistedEpoch) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	bribed, err := json.Marshal(epoch.Bribed)
	if err != nil {
		return fmt.Errorf("marshal bribed totals: %w", err)
	}
	bribesJSON, err := json.Marshal(epoch.Bribes)
	if err != nil {
		return fmt.Errorf("marshal bribes: %w", err)
	}

	_, execErr := pool.Exec(ctx, upsertEpochSQL,
		epoch.Platform,
		epoch.Protocol,
		epoch.Round,
		epoch.End,
		epoch.Proposal,
		bribed,
		bribesJSON,
	)
	if execErr != nil {
		return fmt.Errorf("upsert epoch: %w", execErr)
	}
	return nil
}

// ListEpochs lists all stored epochs for the pair in ascending round order.
func (s *Store) ListEpochs(ctx context.Context, platform, protocol string) ([]bribes.PersistedEpoch, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listEpochsSQL, platform, protocol)
	if queryErr != nil {
		return nil, fmt.Errorf("list epochs: %w", queryErr)
	}
	defer rows.Close()

	epochs := make([]bribes.PersistedEpoch, 0)
	for rows.Next() {
		epoch, scanErr := scanEpoch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		epochs = append(epochs, epoch)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return epochs, nil
}

// LatestFinishedEpoch returns the most recent epoch whose end has passed.
func (s *Store) LatestFinishedEpoch(ctx context.Context, platform, protocol string, now time.Time) (bribes.PersistedEpoch, error) {
	pool, err := s.getPool()
	if err != nil {
		return bribes.PersistedEpoch{}, err
	}

	rows, queryErr := pool.Query(ctx, latestFinishedEpochSQL, platform, protocol, now.Unix())
	if queryErr != nil {
		return bribes.PersistedEpoch{}, fmt.Errorf("latest finished epoch: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return bribes.PersistedEpoch{}, rows.Err()
		}
		return bribes.PersistedEpoch{}, ErrNoFinishedEpoch
	}
	return scanEpoch(rows)
}

// CountEpochs counts stored rounds for the pair.
func (s *Store) CountEpochs(ctx context.Context, platform, protocol string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, countEpochsSQL, platform, protocol).Scan(&count); err != nil {
		return 0, fmt.Errorf("count epochs: %w", err)
	}
	return count, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a
// release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Unlock is best effort; the connection release drops the lock anyway.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func scanEpoch(rows pgx.Rows) (bribes.PersistedEpoch, error) {
	var (
		epoch      bribes.PersistedEpoch
		bribedJSON []byte
		bribesJSON []byte
	)
	if err := rows.Scan(
		&epoch.Platform,
		&epoch.Protocol,
		&epoch.Round,
		&epoch.End,
		&epoch.Proposal,
		&bribedJSON,
		&bribesJSON,
	); err != nil {
		return bribes.PersistedEpoch{}, fmt.Errorf("scan epoch: %w", err)
	}

	if err := json.Unmarshal(bribedJSON, &epoch.Bribed); err != nil {
		return bribes.PersistedEpoch{}, fmt.Errorf("unmarshal bribed totals: %w", err)
	}
	if err := json.Unmarshal(bribesJSON, &epoch.Bribes); err != nil {
		return bribes.PersistedEpoch{}, fmt.Errorf("unmarshal bribes: %w", err)
	}
	return epoch, nil
}

var (
	_ EpochStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
