package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.LessonPlan{},
		&models.StudentProgress{},
	))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB) models.Course {
	t.Helper()
	course := models.Course{Name: "Biology", Subject: "Science", GradeLevel: "9th Grade"}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedStudent(t *testing.T, db *gorm.DB, email, sid string) models.Student {
	t.Helper()
	student := models.Student{FirstName: "Jamie", LastName: "Rivera", Email: email, StudentID: sid}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestStudentRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{FirstName: "Alice", LastName: "Johnson", Email: "alice@example.com", StudentID: "S-100"}
	require.NoError(t, repo.Create(ctx, &student))

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, student.ID, byEmail.ID)

	bySID, err := repo.GetByStudentID(ctx, "S-100")
	require.NoError(t, err)
	require.Equal(t, student.ID, bySID.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	err := repo.Delete(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryFiltersByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	bio := seedCourse(t, db)
	math := models.Course{Name: "Algebra", Subject: "Mathematics"}
	require.NoError(t, db.Create(&math).Error)

	require.NoError(t, repo.Create(ctx, &models.Assignment{CourseID: bio.ID, Title: "Cell structure essay", AssignmentType: models.AssignmentTypeEssay, MaxPoints: 100}))
	require.NoError(t, repo.Create(ctx, &models.Assignment{CourseID: math.ID, Title: "Linear equations", AssignmentType: models.AssignmentTypeShortAnswer, MaxPoints: 50}))

	all, err := repo.List(ctx, AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := repo.List(ctx, AssignmentFilter{CourseID: &bio.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Cell structure essay", filtered[0].Title)

	total, err := repo.CountByCourse(ctx, math.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestSubmissionRepositoryGradedQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db)
	student := seedStudent(t, db, "jamie@example.com", "S-200")
	assignment := models.Assignment{CourseID: course.ID, Title: "Photosynthesis essay", MaxPoints: 100}
	require.NoError(t, db.Create(&assignment).Error)

	score := 82.5
	now := time.Now()
	graded := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Content: "graded work", Score: &score, GradedAt: &now, SubmittedAt: now}
	pending := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Content: "pending work", SubmittedAt: now}
	require.NoError(t, repo.Create(ctx, &graded))
	require.NoError(t, repo.Create(ctx, &pending))

	byStudent, err := repo.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, byStudent, 2)

	gradedOnly, err := repo.ListGradedByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, gradedOnly, 1)
	require.Equal(t, graded.ID, gradedOnly[0].ID)

	byCourse, err := repo.ListGradedByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
}

func TestQuizRepositoryAttempts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db)
	student := seedStudent(t, db, "quiz@example.com", "S-300")

	quiz := models.Quiz{CourseID: course.ID, Title: "Quiz: Photosynthesis", PassingScore: 70}
	require.NoError(t, repo.Create(ctx, &quiz))

	score := 90.0
	done := time.Now()
	require.NoError(t, repo.CreateAttempt(ctx, &models.QuizAttempt{QuizID: quiz.ID, StudentID: student.ID, Score: &score, CompletedAt: &done, StartedAt: done}))
	require.NoError(t, repo.CreateAttempt(ctx, &models.QuizAttempt{QuizID: quiz.ID, StudentID: student.ID, StartedAt: done}))

	attempts, err := repo.ListAttemptsByQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	completed, err := repo.ListCompletedAttemptsByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.NotNil(t, completed[0].Score)
	require.InDelta(t, 90.0, *completed[0].Score, 0.001)

	require.NoError(t, repo.Delete(ctx, quiz.ID))
	require.ErrorIs(t, repo.Delete(ctx, quiz.ID), gorm.ErrRecordNotFound)
}

func TestLessonPlanRepositoryListOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonPlanRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db)

	older := models.LessonPlan{CourseID: course.ID, Title: "Intro to cells", CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.LessonPlan{CourseID: course.ID, Title: "Mitosis deep dive", CreatedAt: time.Now().Add(-1 * time.Hour)}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))

	plans, err := repo.List(ctx, LessonPlanFilter{CourseID: &course.ID})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, "Mitosis deep dive", plans[0].Title, "expected newest plan first")
}

func TestProgressRepositoryRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "progress@example.com", "S-400")

	require.NoError(t, repo.Record(ctx, &models.StudentProgress{StudentID: student.ID, MetricName: "average_score", MetricValue: 84.2, Period: "week", RecordedAt: time.Now()}))

	records, err := repo.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "average_score", records[0].MetricName)
}
