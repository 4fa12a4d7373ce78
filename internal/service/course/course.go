package course

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultMaxMembers = 8

type courseRepo interface {
	NewCourse(ctx context.Context, course *models.Course) error
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
}

type groupRepo interface {
	// NewGroup stores the group together with its owner membership.
	NewGroup(ctx context.Context, g *models.StudyGroup) error
	GroupByID(ctx context.Context, id uuid.UUID) (*models.StudyGroup, error)
	GroupsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.StudyGroup, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context, groupID uuid.UUID) ([]models.StudyGroupMember, error)
	Member(ctx context.Context, groupID, userID uuid.UUID) (*models.StudyGroupMember, error)
	// AddMember must fail with ErrGroupFull once the group holds max members
	// and with ErrAlreadyMember on a repeated join.
	AddMember(ctx context.Context, groupID, userID uuid.UUID, max int) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
}

type assignmentRepo interface {
	NewAssignment(ctx context.Context, a *models.Assignment) error
	AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	AssignmentsByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Assignment, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
	UpsertVote(ctx context.Context, v models.AssignmentVote) error
	DeleteVote(ctx context.Context, assignmentID, userID uuid.UUID) error
}

type CourseService struct {
	log         logger.Log
	courses     courseRepo
	groups      groupRepo
	assignments assignmentRepo
}

func NewCourseService(l logger.Log, c courseRepo, g groupRepo, a assignmentRepo) *CourseService {
	return &CourseService{log: l, courses: c, groups: g, assignments: a}
}

func (s *CourseService) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	course.Code = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(course.Code), " ", ""))
	if err := s.courses.NewCourse(ctx, &course); err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", course.ID, "code", course.Code)
	return &course, nil
}

func (s *CourseService) Course(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.courses.CourseByID(ctx, id)
}

func (s *CourseService) Courses(ctx context.Context) ([]models.Course, error) {
	return s.courses.ListCourses(ctx)
}

func (s *CourseService) CreateGroup(ctx context.Context, g models.StudyGroup) (*models.StudyGroup, error) {
	if _, err := s.courses.CourseByID(ctx, g.CourseID); err != nil {
		return nil, err
	}
	if g.MaxMembers <= 0 {
		g.MaxMembers = defaultMaxMembers
	}
	if err := s.groups.NewGroup(ctx, &g); err != nil {
		return nil, err
	}
	g.MemberCount = 1
	return &g, nil
}

func (s *CourseService) Groups(ctx context.Context, courseID uuid.UUID) ([]models.StudyGroup, error) {
	if _, err := s.courses.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.groups.GroupsByCourse(ctx, courseID)
}

func (s *CourseService) Group(ctx context.Context, id uuid.UUID) (*models.StudyGroupDetail, error) {
	g, err := s.groups.GroupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.StudyGroupDetail{Group: *g}
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		c, err := s.courses.CourseByID(ectx, g.CourseID)
		if err != nil {
			return err
		}
		detail.Course = *c
		return nil
	})
	eg.Go(func() error {
		members, err := s.groups.Members(ectx, g.ID)
		if err != nil {
			return err
		}
		detail.Members = members
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *CourseService) JoinGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.groups.GroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := s.groups.Member(ctx, groupID, userID); err == nil {
		return app_errors.ErrAlreadyMember
	}
	if g.MemberCount >= g.MaxMembers {
		return app_errors.ErrGroupFull
	}
	return s.groups.AddMember(ctx, groupID, userID, g.MaxMembers)
}

func (s *CourseService) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.groups.GroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return app_errors.ErrOwnerCannotLeave
	}
	return s.groups.RemoveMember(ctx, groupID, userID)
}

func (s *CourseService) DeleteGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.groups.GroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID != userID {
		return app_errors.ErrForbidden
	}
	return s.groups.DeleteGroup(ctx, groupID)
}
