package campus

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseService interface {
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	Course(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Courses(ctx context.Context) ([]models.Course, error)
	CreateGroup(ctx context.Context, g models.StudyGroup) (*models.StudyGroup, error)
	Groups(ctx context.Context, courseID uuid.UUID) ([]models.StudyGroup, error)
	Group(ctx context.Context, id uuid.UUID) (*models.StudyGroupDetail, error)
	JoinGroup(ctx context.Context, groupID, userID uuid.UUID) error
	LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error
	DeleteGroup(ctx context.Context, groupID, userID uuid.UUID) error
	CreateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	Assignments(ctx context.Context, groupID, userID uuid.UUID) ([]models.Assignment, error)
	DeleteAssignment(ctx context.Context, id, userID uuid.UUID) error
	Vote(ctx context.Context, assignmentID, userID uuid.UUID, value int) (*models.Assignment, error)
	RetractVote(ctx context.Context, assignmentID, userID uuid.UUID) (*models.Assignment, error)
}

type CourseHandler struct {
	log     logger.Log
	service CourseService
}

func NewCourseHandler(l logger.Log, s CourseService) *CourseHandler {
	return &CourseHandler{log: l, service: s}
}

type createCourseRequest struct {
	Code        string `json:"code" binding:"required,max=20"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=4000"`
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var input createCourseRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), models.Course{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) Course(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "course_id")
	if !ok {
		return
	}
	course, err := h.service.Course(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
	MaxMembers  int    `json:"max_members" binding:"omitempty,min=2,max=100"`
}

func (h *CourseHandler) CreateGroup(c *gin.Context) {
	courseID, ok := controllers.ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input createGroupRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	g, err := h.service.CreateGroup(c.Request.Context(), models.StudyGroup{
		CourseID:    courseID,
		OwnerID:     middleware.ClientID(c),
		Name:        input.Name,
		Description: input.Description,
		MaxMembers:  input.MaxMembers,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *CourseHandler) Groups(c *gin.Context) {
	courseID, ok := controllers.ParamUUID(c, "course_id")
	if !ok {
		return
	}
	groups, err := h.service.Groups(c.Request.Context(), courseID)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *CourseHandler) Group(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	detail, err := h.service.Group(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type groupAction func(ctx context.Context, groupID, userID uuid.UUID) error

func (h *CourseHandler) groupAction(c *gin.Context, fn groupAction) {
	id, ok := controllers.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CourseHandler) JoinGroup(c *gin.Context)   { h.groupAction(c, h.service.JoinGroup) }
func (h *CourseHandler) LeaveGroup(c *gin.Context)  { h.groupAction(c, h.service.LeaveGroup) }
func (h *CourseHandler) DeleteGroup(c *gin.Context) { h.groupAction(c, h.service.DeleteGroup) }

type createAssignmentRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=4000"`
	DueAt       *time.Time `json:"due_at"`
}

func (h *CourseHandler) CreateAssignment(c *gin.Context) {
	groupID, ok := controllers.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	var input createAssignmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	a, err := h.service.CreateAssignment(c.Request.Context(), models.Assignment{
		GroupID:     groupID,
		CreatedBy:   middleware.ClientID(c),
		Title:       input.Title,
		Description: input.Description,
		DueAt:       input.DueAt,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *CourseHandler) Assignments(c *gin.Context) {
	groupID, ok := controllers.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	list, err := h.service.Assignments(c.Request.Context(), groupID, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CourseHandler) DeleteAssignment(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "assignment_id")
	if !ok {
		return
	}
	if err := h.service.DeleteAssignment(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type voteRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1"`
}

func (h *CourseHandler) Vote(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "assignment_id")
	if !ok {
		return
	}
	var input voteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	a, err := h.service.Vote(c.Request.Context(), id, middleware.ClientID(c), input.Value)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *CourseHandler) RetractVote(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "assignment_id")
	if !ok {
		return
	}
	a, err := h.service.RetractVote(c.Request.Context(), id, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
