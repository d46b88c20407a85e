package service

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryStudentRepo struct {
	students map[uint]models.Student
	nextID   uint
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[uint]models.Student), nextID: 1}
}

func (m *memoryStudentRepo) List(_ context.Context, page repository.Pagination) ([]models.Student, error) {
	results := make([]models.Student, 0, len(m.students))
	for _, student := range m.students {
		results = append(results, student)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *memoryStudentRepo) GetByEmail(_ context.Context, email string) (models.Student, error) {
	for _, student := range m.students {
		if student.Email == email {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (m *memoryStudentRepo) GetByStudentID(_ context.Context, studentID string) (models.Student, error) {
	for _, student := range m.students {
		if student.StudentID == studentID {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (m *memoryStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.ID = m.nextID
	student.CreatedAt = time.Now()
	student.UpdatedAt = time.Now()
	m.students[m.nextID] = *student
	m.nextID++
	return nil
}

func (m *memoryStudentRepo) Update(_ context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	student.UpdatedAt = time.Now()
	m.students[student.ID] = *student
	return nil
}

func (m *memoryStudentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.students, id)
	return nil
}

type memoryCourseRepo struct {
	courses map[uint]models.Course
	nextID  uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) List(_ context.Context, page repository.Pagination) ([]models.Course, error) {
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		results = append(results, course)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	m.courses[m.nextID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if filter.CourseID != nil && assignment.CourseID != *filter.CourseID {
			continue
		}
		results = append(results, assignment)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()
	m.assignments[m.nextID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memoryAssignmentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.assignments)), nil
}

func (m *memoryAssignmentRepo) CountByCourse(_ context.Context, courseID uint) (int64, error) {
	var total int64
	for _, assignment := range m.assignments {
		if assignment.CourseID == courseID {
			total++
		}
	}
	return total, nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Submission, error) {
	return m.filter(func(s models.Submission) bool { return s.StudentID == studentID }), nil
}

func (m *memorySubmissionRepo) ListByAssignment(_ context.Context, assignmentID uint) ([]models.Submission, error) {
	return m.filter(func(s models.Submission) bool { return s.AssignmentID == assignmentID }), nil
}

func (m *memorySubmissionRepo) ListGradedByStudent(_ context.Context, studentID uint) ([]models.Submission, error) {
	return m.filter(func(s models.Submission) bool { return s.StudentID == studentID && s.Score != nil }), nil
}

func (m *memorySubmissionRepo) ListGradedByCourse(_ context.Context, courseID uint) ([]models.Submission, error) {
	return m.filter(func(s models.Submission) bool { return s.Score != nil }), nil
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	submission.ID = m.nextID
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) filter(keep func(models.Submission) bool) []models.Submission {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if keep(submission) {
			results = append(results, submission)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

type memoryQuizRepo struct {
	quizzes  map[uint]models.Quiz
	attempts map[uint]models.QuizAttempt
	nextID   uint
}

func newMemoryQuizRepo() *memoryQuizRepo {
	return &memoryQuizRepo{
		quizzes:  make(map[uint]models.Quiz),
		attempts: make(map[uint]models.QuizAttempt),
		nextID:   1,
	}
}

func (m *memoryQuizRepo) List(_ context.Context, filter repository.QuizFilter) ([]models.Quiz, error) {
	results := make([]models.Quiz, 0, len(m.quizzes))
	for _, quiz := range m.quizzes {
		if filter.CourseID != nil && quiz.CourseID != *filter.CourseID {
			continue
		}
		results = append(results, quiz)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryQuizRepo) GetByID(_ context.Context, id uint) (models.Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (m *memoryQuizRepo) Create(_ context.Context, quiz *models.Quiz) error {
	quiz.ID = m.nextID
	quiz.CreatedAt = time.Now()
	m.quizzes[m.nextID] = *quiz
	m.nextID++
	return nil
}

func (m *memoryQuizRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.quizzes, id)
	return nil
}

func (m *memoryQuizRepo) CreateAttempt(_ context.Context, attempt *models.QuizAttempt) error {
	attempt.ID = m.nextID
	m.attempts[m.nextID] = *attempt
	m.nextID++
	return nil
}

func (m *memoryQuizRepo) ListAttemptsByStudent(_ context.Context, studentID uint) ([]models.QuizAttempt, error) {
	return m.filterAttempts(func(a models.QuizAttempt) bool { return a.StudentID == studentID }), nil
}

func (m *memoryQuizRepo) ListAttemptsByQuiz(_ context.Context, quizID uint) ([]models.QuizAttempt, error) {
	return m.filterAttempts(func(a models.QuizAttempt) bool { return a.QuizID == quizID }), nil
}

func (m *memoryQuizRepo) ListCompletedAttemptsByStudent(_ context.Context, studentID uint) ([]models.QuizAttempt, error) {
	return m.filterAttempts(func(a models.QuizAttempt) bool { return a.StudentID == studentID && a.Score != nil }), nil
}

func (m *memoryQuizRepo) filterAttempts(keep func(models.QuizAttempt) bool) []models.QuizAttempt {
	results := make([]models.QuizAttempt, 0, len(m.attempts))
	for _, attempt := range m.attempts {
		if keep(attempt) {
			results = append(results, attempt)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

type memoryLessonPlanRepo struct {
	plans  map[uint]models.LessonPlan
	nextID uint
}

func newMemoryLessonPlanRepo() *memoryLessonPlanRepo {
	return &memoryLessonPlanRepo{plans: make(map[uint]models.LessonPlan), nextID: 1}
}

func (m *memoryLessonPlanRepo) List(_ context.Context, filter repository.LessonPlanFilter) ([]models.LessonPlan, error) {
	results := make([]models.LessonPlan, 0, len(m.plans))
	for _, plan := range m.plans {
		if filter.CourseID != nil && plan.CourseID != *filter.CourseID {
			continue
		}
		results = append(results, plan)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryLessonPlanRepo) GetByID(_ context.Context, id uint) (models.LessonPlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return models.LessonPlan{}, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (m *memoryLessonPlanRepo) Create(_ context.Context, plan *models.LessonPlan) error {
	plan.ID = m.nextID
	plan.CreatedAt = time.Now()
	m.plans[m.nextID] = *plan
	m.nextID++
	return nil
}

func (m *memoryLessonPlanRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.plans[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.plans, id)
	return nil
}

type memoryProgressRepo struct {
	records []models.StudentProgress
}

func (m *memoryProgressRepo) Record(_ context.Context, progress *models.StudentProgress) error {
	progress.ID = uint(len(m.records) + 1)
	m.records = append(m.records, *progress)
	return nil
}

func (m *memoryProgressRepo) ListByStudent(_ context.Context, studentID uint) ([]models.StudentProgress, error) {
	results := make([]models.StudentProgress, 0)
	for _, record := range m.records {
		if record.StudentID == studentID {
			results = append(results, record)
		}
	}
	return results, nil
}

type memoryNotificationRepo struct {
	notifications map[uint]models.Notification
	nextID        uint
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{notifications: make(map[uint]models.Notification), nextID: 1}
}

func (m *memoryNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	notification.ID = m.nextID
	notification.CreatedAt = time.Now()
	m.notifications[m.nextID] = *notification
	m.nextID++
	return nil
}

func (m *memoryNotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	results := make([]models.Notification, 0)
	for _, notification := range m.notifications {
		if notification.UserID == userID {
			results = append(results, notification)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	return results, nil
}

func (m *memoryNotificationRepo) MarkRead(_ context.Context, id uint, userID string) (models.Notification, error) {
	notification, ok := m.notifications[id]
	if !ok || notification.UserID != userID {
		return models.Notification{}, gorm.ErrRecordNotFound
	}
	notification.Read = true
	m.notifications[id] = notification
	return notification, nil
}
