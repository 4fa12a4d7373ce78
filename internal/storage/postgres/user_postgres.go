package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserPostgres struct {
	db *pgxpool.Pool
}

func NewUserPostgres(db *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{db: db}
}

const selectUser = `
	SELECT u.id, u.username, u.password, u.email, u.full_name, u.bio, u.campus,
	       u.avatar_key, u.created_at,
	       COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON u.id = ur.user_id
	LEFT JOIN roles r ON ur.role_id = r.id
`

func (r *UserPostgres) userBy(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRow(ctx, selectUser+" WHERE "+where+" GROUP BY u.id", arg)
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.FullName,
		&user.Bio, &user.Campus, &user.AvatarKey, &user.CreatedAt, &user.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgres) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.userBy(ctx, "u.id = $1", id)
}

func (r *UserPostgres) UserByName(ctx context.Context, name string) (*models.User, error) {
	return r.userBy(ctx, "u.username = $1", name)
}

func (r *UserPostgres) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.userBy(ctx, "u.email = $1", email)
}

func (r *UserPostgres) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	queryUser := `
		INSERT INTO users (username, password, email, full_name, campus)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, queryUser, user.Username, user.Password, user.Email, user.FullName, user.Campus).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isCode(err, codeUniqueViolation) {
			return nil, app_errors.ErrUserExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	queryRole := `SELECT id FROM roles WHERE name = $1`
	insertUserRole := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`
	for _, roleName := range user.Roles {
		var roleID int
		if err = tx.QueryRow(ctx, queryRole, roleName).Scan(&roleID); err != nil {
			return nil, fmt.Errorf("role %q: %w", roleName, err)
		}
		if _, err = tx.Exec(ctx, insertUserRole, user.ID, roleID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgres) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users
		   SET full_name = COALESCE($2, full_name),
		       bio       = COALESCE($3, bio),
		       campus    = COALESCE($4, campus)
		 WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, upd.FullName, upd.Bio, upd.Campus)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, app_errors.ErrUserNotFound
	}
	return r.UserByID(ctx, id)
}

func (r *UserPostgres) SetAvatar(ctx context.Context, id uuid.UUID, objectKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET avatar_key = $2 WHERE id = $1`, id, objectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrUserNotFound
	}
	return nil
}
