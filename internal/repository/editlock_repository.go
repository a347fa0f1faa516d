package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrEditLocked      = errors.New("resource is being edited by another user")
	ErrEditLockNotHeld = errors.New("edit lock is not held by this user")
)

// EditLockRepository is the edit-lock surface shared by products and
// categories. Both tables carry editing_user_id and edit_lock_expires_at.
type EditLockRepository interface {
	// AcquireEditLock grants or extends the lock for userID. When another
	// user holds an unexpired lock it returns ErrEditLocked together with
	// the current lock state.
	AcquireEditLock(ctx context.Context, id, userID uuid.UUID, ttl time.Duration) (*domain.EditLock, error)
	// ExtendEditLock pushes out the expiry of a lock already held by userID.
	ExtendEditLock(ctx context.Context, id, userID uuid.UUID, ttl time.Duration) (*domain.EditLock, error)
	// ReleaseEditLock clears a lock held by userID.
	ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error
	// ReleaseAllEditLocks clears every lock held by userID and returns how
	// many rows were unlocked.
	ReleaseAllEditLocks(ctx context.Context, userID uuid.UUID) (int, error)
}

// editLockStore implements EditLockRepository for a given table. The
// acquire path locks the row with SELECT ... FOR UPDATE so two concurrent
// requests cannot both be granted the lock.
type editLockStore struct {
	db       *sql.DB
	table    string
	notFound error
}

func (s editLockStore) AcquireEditLock(ctx context.Context, id, userID uuid.UUID, ttl time.Duration) (*domain.EditLock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`SELECT editing_user_id, edit_lock_expires_at FROM %s WHERE id = $1 FOR UPDATE`,
		s.table,
	)

	var current domain.EditLock
	if err := tx.QueryRowContext(ctx, query, id).Scan(&current.UserID, &current.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, s.notFound
		}
		return nil, fmt.Errorf("failed to read edit lock: %w", err)
	}

	now := time.Now()
	if holder, held := current.HeldBy(now); held && holder != userID {
		// Surface the current holder so the caller can report it.
		return &current, ErrEditLocked
	}

	expires := now.Add(ttl)
	update := fmt.Sprintf(
		`UPDATE %s SET editing_user_id = $2, edit_lock_expires_at = $3 WHERE id = $1`,
		s.table,
	)
	if _, err := tx.ExecContext(ctx, update, id, userID, expires); err != nil {
		return nil, fmt.Errorf("failed to write edit lock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit edit lock: %w", err)
	}

	return &domain.EditLock{UserID: &userID, ExpiresAt: &expires}, nil
}

func (s editLockStore) ExtendEditLock(ctx context.Context, id, userID uuid.UUID, ttl time.Duration) (*domain.EditLock, error) {
	expires := time.Now().Add(ttl)
	query := fmt.Sprintf(`
		UPDATE %s
		SET edit_lock_expires_at = $3
		WHERE id = $1 AND editing_user_id = $2 AND edit_lock_expires_at > NOW()
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, id, userID, expires)
	if err != nil {
		return nil, fmt.Errorf("failed to extend edit lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.exists(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrEditLockNotHeld
	}

	return &domain.EditLock{UserID: &userID, ExpiresAt: &expires}, nil
}

func (s editLockStore) ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET editing_user_id = NULL, edit_lock_expires_at = NULL
		WHERE id = $1 AND editing_user_id = $2
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to release edit lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.exists(ctx, id); err != nil {
			return err
		}
		return ErrEditLockNotHeld
	}

	return nil
}

func (s editLockStore) ReleaseAllEditLocks(ctx context.Context, userID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET editing_user_id = NULL, edit_lock_expires_at = NULL
		WHERE editing_user_id = $1
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to release edit locks: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func (s editLockStore) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1`, s.table)

	var one int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, s.notFound
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}
