package database

import (
	"errors"
	"time"

	"github.com/learnloop/coursechat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateCourse(course *models.Course) error {
	return d.db.Create(course).Error
}

func (d *Database) GetCourse(courseID string) (*models.Course, error) {
	var course models.Course
	if err := d.db.First(&course, "course_id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (d *Database) GetPublishedCourses() ([]models.Course, error) {
	var courses []models.Course
	err := d.db.Where("is_published = ?", true).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (d *Database) EnrollStudent(courseID string, studentID uint) error {
	if _, err := d.GetCourse(courseID); err != nil {
		return err
	}

	enrolled, err := d.IsEnrolled(courseID, studentID)
	if err != nil {
		return err
	}
	if enrolled {
		return nil
	}

	return d.db.Create(&models.Enrollment{
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: time.Now(),
	}).Error
}

func (d *Database) IsEnrolled(courseID string, studentID uint) (bool, error) {
	var count int64
	err := d.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

// CanAccessCourse reports whether the user may read or write the
// course chat: the owning teacher or an enrolled student.
func (d *Database) CanAccessCourse(userID uint, courseID string) (bool, error) {
	course, err := d.GetCourse(courseID)
	if err != nil {
		return false, err
	}

	if course.CreatorID == userID {
		return true, nil
	}

	return d.IsEnrolled(courseID, userID)
}
