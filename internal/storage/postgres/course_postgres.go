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

type CoursePostgres struct {
	db *pgxpool.Pool
}

func NewCoursePostgres(db *pgxpool.Pool) *CoursePostgres {
	return &CoursePostgres{db: db}
}

func (r *CoursePostgres) NewCourse(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, course.Code, course.Name, course.Description).Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		if isCode(err, codeUniqueViolation) {
			return app_errors.ErrCourseExists
		}
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

func (r *CoursePostgres) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := r.db.QueryRow(ctx, `SELECT id, code, name, description, created_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CoursePostgres) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, description, created_at FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

const groupSelect = `
	SELECT g.id, g.course_id, g.owner_id, g.name, g.description, g.max_members, g.created_at,
	       (SELECT COUNT(*) FROM study_group_members m WHERE m.group_id = g.id)
	FROM study_groups g
`

func scanGroup(row pgx.Row) (*models.StudyGroup, error) {
	var g models.StudyGroup
	err := row.Scan(&g.ID, &g.CourseID, &g.OwnerID, &g.Name, &g.Description, &g.MaxMembers, &g.CreatedAt, &g.MemberCount)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *CoursePostgres) NewGroup(ctx context.Context, g *models.StudyGroup) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO study_groups (course_id, owner_id, name, description, max_members)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, g.CourseID, g.OwnerID, g.Name, g.Description, g.MaxMembers).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrCourseNotFound
		}
		return fmt.Errorf("failed to insert study group: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO study_group_members (group_id, user_id, role) VALUES ($1, $2, $3)
	`, g.ID, g.OwnerID, models.GroupRoleOwner)
	if err != nil {
		return fmt.Errorf("failed to insert group owner: %w", err)
	}
	g.MemberCount = 1
	return tx.Commit(ctx)
}

func (r *CoursePostgres) GroupByID(ctx context.Context, id uuid.UUID) (*models.StudyGroup, error) {
	g, err := scanGroup(r.db.QueryRow(ctx, groupSelect+` WHERE g.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrGroupNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *CoursePostgres) GroupsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.StudyGroup, error) {
	rows, err := r.db.Query(ctx, groupSelect+` WHERE g.course_id = $1 ORDER BY g.created_at DESC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study groups: %w", err)
	}
	defer rows.Close()

	groups := []models.StudyGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (r *CoursePostgres) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM study_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrGroupNotFound
	}
	return nil
}

func (r *CoursePostgres) Members(ctx context.Context, groupID uuid.UUID) ([]models.StudyGroupMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.group_id, m.user_id, u.username, m.role, m.joined_at
		FROM study_group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.StudyGroupMember
	for rows.Next() {
		var m models.StudyGroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Username, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *CoursePostgres) Member(ctx context.Context, groupID, userID uuid.UUID) (*models.StudyGroupMember, error) {
	var m models.StudyGroupMember
	err := r.db.QueryRow(ctx, `
		SELECT m.group_id, m.user_id, u.username, m.role, m.joined_at
		FROM study_group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.user_id = $2
	`, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Username, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrNotMember
		}
		return nil, err
	}
	return &m, nil
}

// checkJoin reports an existing membership ahead of a full group.
func checkJoin(count, max int, member bool) error {
	if member {
		return app_errors.ErrAlreadyMember
	}
	if max > 0 && count >= max {
		return app_errors.ErrGroupFull
	}
	return nil
}

// AddMember locks the group row so concurrent joins cannot overshoot max.
func (r *CoursePostgres) AddMember(ctx context.Context, groupID, userID uuid.UUID, max int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM study_groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app_errors.ErrGroupNotFound
		}
		return err
	}

	var (
		count  int
		member bool
	)
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(bool_or(user_id = $2), false)
		FROM study_group_members WHERE group_id = $1
	`, groupID, userID).Scan(&count, &member); err != nil {
		return err
	}
	if err := checkJoin(count, max, member); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO study_group_members (group_id, user_id, role) VALUES ($1, $2, $3)
	`, groupID, userID, models.GroupRoleMember)
	if err != nil {
		switch {
		case isCode(err, codeUniqueViolation):
			return app_errors.ErrAlreadyMember
		case isCode(err, codeForeignKeyViolation):
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *CoursePostgres) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM study_group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrNotMember
	}
	return nil
}

const assignmentSelect = `
	SELECT a.id, a.group_id, a.created_by, a.title, a.description, a.due_at, a.created_at,
	       COALESCE((SELECT SUM(v.value) FROM assignment_votes v WHERE v.assignment_id = a.id), 0)
	FROM assignments a
`

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.GroupID, &a.CreatedBy, &a.Title, &a.Description, &a.DueAt, &a.CreatedAt, &a.Score)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *CoursePostgres) NewAssignment(ctx context.Context, a *models.Assignment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO assignments (group_id, created_by, title, description, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.GroupID, a.CreatedBy, a.Title, a.Description, a.DueAt).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrGroupNotFound
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (r *CoursePostgres) AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// AssignmentsByGroup lists the highest scored assignments first.
func (r *CoursePostgres) AssignmentsByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Assignment, error) {
	rows, err := r.db.Query(ctx, assignmentSelect+` WHERE a.group_id = $1 ORDER BY 8 DESC, a.created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (r *CoursePostgres) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrAssignmentNotFound
	}
	return nil
}

func (r *CoursePostgres) UpsertVote(ctx context.Context, v models.AssignmentVote) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO assignment_votes (assignment_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (assignment_id, user_id) DO UPDATE SET value = EXCLUDED.value, created_at = NOW()
	`, v.AssignmentID, v.UserID, v.Value)
	if err != nil {
		switch {
		case isCode(err, codeForeignKeyViolation):
			return app_errors.ErrAssignmentNotFound
		case isCode(err, codeCheckViolation):
			return app_errors.ErrInvalidVote
		}
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

func (r *CoursePostgres) DeleteVote(ctx context.Context, assignmentID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assignment_votes WHERE assignment_id = $1 AND user_id = $2`, assignmentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrVoteNotFound
	}
	return nil
}
