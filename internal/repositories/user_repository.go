package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrEmailTaken           = fmt.Errorf("%w: user already exists with this email", apperr.ErrConflict)
	ErrNeighborhoodNotFound = fmt.Errorf("neighborhood %w", apperr.ErrNotFound)
)

const uniqueViolation = "23505"

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetMany(ctx context.Context, ids []string) ([]models.User, error)
	ListByNeighborhood(ctx context.Context, neighborhoodID, search string, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastActive(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string) (models.User, error)
	SetRole(ctx context.Context, id, role string) (models.User, error)
	ActivityStats(ctx context.Context, id string) (models.ActivityStats, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, bio, avatar, zip_code, neighborhood_id, role, is_verified, skills, last_active, created_at`

// Create inserts a user and bumps the neighborhood member count atomically.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if user.Skills == nil {
		user.Skills = pq.StringArray{}
	}
	var out models.User
	err = tx.QueryRowxContext(ctx, `INSERT INTO users (id, first_name, last_name, email, password_hash, zip_code, neighborhood_id, role, skills)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+userColumns,
		user.ID, user.FirstName, user.LastName, strings.ToLower(user.Email), user.PasswordHash, user.ZipCode, user.NeighborhoodID, user.Role, user.Skills).
		StructScan(&out)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrEmailTaken
		}
		return models.User{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE neighborhoods SET member_count = member_count + 1 WHERE id=$1`, user.NeighborhoodID); err != nil {
		return models.User{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.User{}, err
	}
	return out, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by lower-cased email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetMany fetches the users with the given ids. Unknown ids are skipped.
func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	return users, err
}

// ListByNeighborhood lists residents, most recently active first.
func (r *UserRepo) ListByNeighborhood(ctx context.Context, neighborhoodID, search string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE neighborhood_id=$1`
	args := []any{neighborhoodID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(skills) s WHERE s ILIKE $%d))`, len(args), len(args), len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY last_active DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// UpdateProfile applies the non-nil fields of upd.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	var skills any
	if upd.Skills != nil {
		skills = pq.StringArray(upd.Skills)
	}
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET
            first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            bio = COALESCE($4, bio),
            avatar = COALESCE($5, avatar),
            skills = COALESCE($6, skills)
        WHERE id=$1 RETURNING `+userColumns,
		id, upd.FirstName, upd.LastName, upd.Bio, upd.Avatar, skills).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, id, passwordHash)
	return err
}

// TouchLastActive records activity for the user.
func (r *UserRepo) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = NOW() WHERE id=$1`, id)
	return err
}

// MarkVerified flags the user's email as verified. Repeating it is harmless.
func (r *UserRepo) MarkVerified(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET is_verified = TRUE WHERE id=$1 RETURNING `+userColumns, id).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetRole changes the user's role.
func (r *UserRepo) SetRole(ctx context.Context, id, role string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET role=$2 WHERE id=$1 RETURNING `+userColumns, id, role).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ActivityStats counts the user's posts, comments, listings and reports.
func (r *UserRepo) ActivityStats(ctx context.Context, id string) (models.ActivityStats, error) {
	var stats models.ActivityStats
	err := r.db.GetContext(ctx, &stats, `SELECT
            (SELECT COUNT(*) FROM forum_posts WHERE author_id = u.id) AS forum_posts,
            (SELECT COUNT(*) FROM forum_comments WHERE author_id = u.id) AS comments,
            (SELECT COUNT(*) FROM marketplace_listings WHERE seller_id = u.id) AS marketplace_listings,
            (SELECT COUNT(*) FROM safety_reports WHERE reporter_id = u.id) AS safety_reports,
            u.created_at, u.last_active
        FROM users u WHERE u.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActivityStats{}, ErrUserNotFound
	}
	return stats, err
}
