package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/middleware"
	"github.com/learnloop/coursechat/internal/models"
	"github.com/learnloop/coursechat/internal/websocket"
)

type CourseHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewCourseHandler(db *database.Database, hub *websocket.Hub) *CourseHandler {
	return &CourseHandler{db: db, hub: hub}
}

// CreateCourse registers a course; teacher role only. The assigned
// public courseId is also the chat room key.
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	user, err := h.db.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Role != models.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"error": "only teachers can create courses"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Level       string `json:"level"`
		IsPublished bool   `json:"isPublished"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course := &models.Course{
		CourseID:    uuid.NewString(),
		Name:        req.Name,
		Level:       req.Level,
		CreatorID:   userID,
		IsPublished: req.IsPublished,
		CreatedAt:   time.Now(),
	}

	if err := h.db.CreateCourse(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}

	c.JSON(http.StatusCreated, formatCourseResponse(course))
}

// GetCourses lists published courses.
func (h *CourseHandler) GetCourses(c *gin.Context) {
	courses, err := h.db.GetPublishedCourses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get courses"})
		return
	}

	result := make([]gin.H, len(courses))
	for i := range courses {
		result[i] = formatCourseResponse(&courses[i])
	}

	c.JSON(http.StatusOK, gin.H{"courses": result})
}

// GetCourse returns one course with its current chat presence.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID := c.Param("id")

	course, err := h.db.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}

	response := formatCourseResponse(course)
	response["onlineCount"] = h.hub.RoomSize(course.CourseID)

	c.JSON(http.StatusOK, response)
}

// Enroll adds the calling student to a course. Idempotent.
func (h *CourseHandler) Enroll(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)
	courseID := c.Param("id")

	if err := h.db.EnrollStudent(courseID, userID); err != nil {
		if errors.Is(err, database.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "enrolled successfully"})
}

func formatCourseResponse(course *models.Course) gin.H {
	return gin.H{
		"courseId":    course.CourseID,
		"name":        course.Name,
		"level":       course.Level,
		"creatorId":   course.CreatorID,
		"isPublished": course.IsPublished,
		"createdAt":   course.CreatedAt,
	}
}
