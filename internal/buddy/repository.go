package buddy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines persistence operations for buddy matching
type Repository interface {
	// Users and preferences
	GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error)
	GetPreference(ctx context.Context, userID int64) (*BuddyPreference, error)
	UpsertPreference(ctx context.Context, pref *BuddyPreference) error

	// Discovery
	ListCandidates(ctx context.Context, userID int64) ([]*Candidate, error)

	// Connections
	FindConnection(ctx context.Context, fromUserID, toUserID int64) (*Connection, error)
	SaveLike(ctx context.Context, fromUserID, toUserID int64) (mutual bool, err error)
	ListConnectionsForUser(ctx context.Context, userID int64, status ConnectionStatus) ([]*ConnectionView, error)

	// Blocks
	CreateBlock(ctx context.Context, blockerID, blockedID int64, reason *string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL buddy repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// GetUserProfile returns the matching view of a user, or nil when the user
// does not exist
func (r *postgresRepository) GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	var profile UserProfile
	query := `SELECT id, username, gender, age FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return &profile, nil
}

// GetPreference returns a user's preference record, or nil when none exists
func (r *postgresRepository) GetPreference(ctx context.Context, userID int64) (*BuddyPreference, error) {
	var pref BuddyPreference
	query := `
        SELECT id, user_id, gender_preference, min_age, max_age,
               workout_types, availability_days, fitness_level, goals,
               gym_location, created_at, updated_at
        FROM buddy_preferences
        WHERE user_id = $1`

	err := r.db.GetContext(ctx, &pref, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &pref, nil
}

// UpsertPreference creates or replaces a user's preference record
func (r *postgresRepository) UpsertPreference(ctx context.Context, pref *BuddyPreference) error {
	query := `
        INSERT INTO buddy_preferences (
            user_id, gender_preference, min_age, max_age, workout_types,
            availability_days, fitness_level, goals, gym_location
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (user_id)
        DO UPDATE SET
            gender_preference = $2,
            min_age = $3,
            max_age = $4,
            workout_types = $5,
            availability_days = $6,
            fitness_level = $7,
            goals = $8,
            gym_location = $9,
            updated_at = NOW()
        RETURNING id, created_at, updated_at
    `

	err := r.db.QueryRowxContext(
		ctx, query,
		pref.UserID, pref.GenderPreference, pref.MinAge, pref.MaxAge,
		pref.WorkoutTypes, pref.AvailabilityDays, pref.FitnessLevel,
		pref.Goals, pref.GymLocation,
	).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	return nil
}

// ListCandidates returns every user with a preference record, excluding the
// requester, anyone blocked by or blocking them, and anyone already in a
// connection with them in either direction. Ordered by id so equally scored
// candidates rank consistently across calls.
func (r *postgresRepository) ListCandidates(ctx context.Context, userID int64) ([]*Candidate, error) {
	query := `
        SELECT u.id, u.username, u.gender, u.age,
               p.id, p.user_id, p.gender_preference, p.min_age, p.max_age,
               p.workout_types, p.availability_days, p.fitness_level,
               p.goals, p.gym_location, p.created_at, p.updated_at
        FROM users u
        JOIN buddy_preferences p ON p.user_id = u.id
        WHERE u.id != $1
          AND u.id NOT IN (SELECT blocked_id FROM blocked_users WHERE blocker_id = $1)
          AND u.id NOT IN (SELECT blocker_id FROM blocked_users WHERE blocked_id = $1)
          AND u.id NOT IN (
              SELECT to_user_id FROM buddy_connections WHERE from_user_id = $1
              UNION
              SELECT from_user_id FROM buddy_connections WHERE to_user_id = $1
          )
        ORDER BY u.id
    `

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		var c Candidate
		err := rows.Scan(
			&c.User.ID, &c.User.Username, &c.User.Gender, &c.User.Age,
			&c.Preference.ID, &c.Preference.UserID, &c.Preference.GenderPreference,
			&c.Preference.MinAge, &c.Preference.MaxAge,
			&c.Preference.WorkoutTypes, &c.Preference.AvailabilityDays,
			&c.Preference.FitnessLevel, &c.Preference.Goals,
			&c.Preference.GymLocation, &c.Preference.CreatedAt, &c.Preference.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// FindConnection returns the directed edge from one user to another, or nil
// when none exists
func (r *postgresRepository) FindConnection(ctx context.Context, fromUserID, toUserID int64) (*Connection, error) {
	var conn Connection
	query := `
        SELECT id, from_user_id, to_user_id, status, created_at, updated_at
        FROM buddy_connections
        WHERE from_user_id = $1 AND to_user_id = $2`

	err := r.db.GetContext(ctx, &conn, query, fromUserID, toUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}

	return &conn, nil
}

// SaveLike creates the directed like edge and upgrades both edges to
// mutual when a reverse edge exists. The pair is serialized with an
// advisory lock so two concurrent reciprocal likes cannot both miss the
// reverse edge and leave two permanently pending rows.
func (r *postgresRepository) SaveLike(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockPair(ctx, tx, fromUserID, toUserID); err != nil {
		return false, err
	}

	// Re-check the duplicate inside the lock
	var exists bool
	err = tx.GetContext(ctx, &exists, `
        SELECT EXISTS(
            SELECT 1 FROM buddy_connections
            WHERE from_user_id = $1 AND to_user_id = $2
        )`, fromUserID, toUserID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing like: %w", err)
	}
	if exists {
		return false, ErrAlreadyLiked
	}

	var reverseID int64
	err = tx.GetContext(ctx, &reverseID, `
        SELECT id FROM buddy_connections
        WHERE from_user_id = $1 AND to_user_id = $2`, toUserID, fromUserID)

	mutual := false
	status := StatusPending
	switch {
	case err == nil:
		mutual = true
		status = StatusMutual
		_, err = tx.ExecContext(ctx, `
            UPDATE buddy_connections
            SET status = $2, updated_at = NOW()
            WHERE id = $1`, reverseID, StatusMutual)
		if err != nil {
			return false, fmt.Errorf("failed to update reverse connection: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// no reverse like yet
	default:
		return false, fmt.Errorf("failed to check reverse connection: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO buddy_connections (from_user_id, to_user_id, status)
        VALUES ($1, $2, $3)`, fromUserID, toUserID, status)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrAlreadyLiked
		}
		return false, fmt.Errorf("failed to create connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like: %w", err)
	}

	return mutual, nil
}

// ListConnectionsForUser returns connection views for a user. Mutual
// connections are matched in either direction; any other status only where
// the user is the originating side.
func (r *postgresRepository) ListConnectionsForUser(ctx context.Context, userID int64, status ConnectionStatus) ([]*ConnectionView, error) {
	baseQuery := `
        SELECT c.id, u.id, u.username, u.age, u.gender, c.status, c.created_at,
               p.fitness_level, p.gym_location
        FROM buddy_connections c
        JOIN users u ON u.id = CASE
            WHEN c.from_user_id = $1 THEN c.to_user_id
            ELSE c.from_user_id
        END
        LEFT JOIN buddy_preferences p ON p.user_id = u.id
    `

	var query string
	if status == StatusMutual {
		query = baseQuery + `
        WHERE (c.from_user_id = $1 OR c.to_user_id = $1) AND c.status = $2
        ORDER BY c.created_at DESC`
	} else {
		query = baseQuery + `
        WHERE c.from_user_id = $1 AND c.status = $2
        ORDER BY c.created_at DESC`
	}

	rows, err := r.db.QueryxContext(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var views []*ConnectionView
	for rows.Next() {
		var v ConnectionView
		err := rows.Scan(
			&v.ConnectionID, &v.UserID, &v.Username, &v.Age, &v.Gender,
			&v.Status, &v.ConnectedAt, &v.FitnessLevel, &v.GymLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		views = append(views, &v)
	}

	return views, rows.Err()
}

// CreateBlock inserts the block record and removes any connection between
// the pair in either direction, as one transaction
func (r *postgresRepository) CreateBlock(ctx context.Context, blockerID, blockedID int64, reason *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockPair(ctx, tx, blockerID, blockedID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO blocked_users (blocker_id, blocked_id, reason)
        VALUES ($1, $2, $3)`, blockerID, blockedID, reason)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyBlocked
		}
		return fmt.Errorf("failed to create block: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        DELETE FROM buddy_connections
        WHERE (from_user_id = $1 AND to_user_id = $2)
           OR (from_user_id = $2 AND to_user_id = $1)`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to remove connections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block: %w", err)
	}

	return nil
}

// lockPair takes a transaction-scoped advisory lock on the unordered user
// pair, serializing like/block mutations between the same two users
func lockPair(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	_, err := tx.ExecContext(ctx, `
        SELECT pg_advisory_xact_lock(least($1::int, $2::int), greatest($1::int, $2::int))`, a, b)
	if err != nil {
		return fmt.Errorf("failed to lock user pair: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
