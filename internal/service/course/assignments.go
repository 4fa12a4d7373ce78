package course

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"

	"github.com/google/uuid"
)

func (s *CourseService) member(ctx context.Context, groupID, userID uuid.UUID) (*models.StudyGroupMember, error) {
	if _, err := s.groups.GroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groups.Member(ctx, groupID, userID)
}

func (s *CourseService) CreateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error) {
	if _, err := s.member(ctx, a.GroupID, a.CreatedBy); err != nil {
		return nil, err
	}
	if err := s.assignments.NewAssignment(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *CourseService) Assignments(ctx context.Context, groupID, userID uuid.UUID) ([]models.Assignment, error) {
	if _, err := s.member(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.assignments.AssignmentsByGroup(ctx, groupID)
}

// DeleteAssignment is allowed to the assignment's author and the group owner.
func (s *CourseService) DeleteAssignment(ctx context.Context, id, userID uuid.UUID) error {
	a, err := s.assignments.AssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	if a.CreatedBy != userID {
		g, err := s.groups.GroupByID(ctx, a.GroupID)
		if err != nil {
			return err
		}
		if g.OwnerID != userID {
			return app_errors.ErrForbidden
		}
	}
	return s.assignments.DeleteAssignment(ctx, id)
}

// Vote records +1 or -1. Voting again replaces the previous vote.
func (s *CourseService) Vote(ctx context.Context, assignmentID, userID uuid.UUID, value int) (*models.Assignment, error) {
	if value != 1 && value != -1 {
		return nil, app_errors.ErrInvalidVote
	}
	a, err := s.assignments.AssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.Member(ctx, a.GroupID, userID); err != nil {
		return nil, err
	}
	if err := s.assignments.UpsertVote(ctx, models.AssignmentVote{AssignmentID: a.ID, UserID: userID, Value: value}); err != nil {
		return nil, err
	}
	return s.assignments.AssignmentByID(ctx, assignmentID)
}

func (s *CourseService) RetractVote(ctx context.Context, assignmentID, userID uuid.UUID) (*models.Assignment, error) {
	if err := s.assignments.DeleteVote(ctx, assignmentID, userID); err != nil {
		return nil, err
	}
	return s.assignments.AssignmentByID(ctx, assignmentID)
}
