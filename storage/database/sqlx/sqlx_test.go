package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	testutil "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/tests"
)

func newTestUser(t *testing.T, repo user.Repository, email string, roles ...string) user.User {
	t.Helper()
	usr := testutil.CreateUser(t, repo, "Test "+email, email, "Sup3r-Secret!", roles, true)
	t.Cleanup(func() { _ = repo.DeleteUsersByID(context.Background(), usr.ID) })
	return usr
}

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	usr := newTestUser(t, repo, "repo.teacher@example.com", user.RoleTeacher)

	got, err := repo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, []string{user.RoleTeacher}, got.Roles)
	assert.NoError(t, got.CheckPassword("Sup3r-Secret!"))
	assert.True(t, got.LastLogin.IsZero())

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, usr.Email))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, usr.Email, usr))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "nobody@example.com"))

	got.FullName = "Renamed"
	got.PasswordHash = nil
	got.LastLogin = core.NowFunc()
	got, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FullName)
	assert.False(t, got.LastLogin.IsZero())
	assert.NoError(t, got.CheckPassword("Sup3r-Secret!"), "nil hash keeps the stored password")

	_, err = repo.GetUserByID(ctx, core.NewID())
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.UpdateUser(ctx, user.User{ID: core.NewID()})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestCourseRubricSubmissionRepositories(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	courses := NewCourseRepository(db)
	rubrics := NewRubricRepository(db)
	subs := NewSubmissionRepository(db)
	feedback := NewFeedbackRepository(db)

	teacher := newTestUser(t, users, "repo.owner@example.com", user.RoleTeacher)
	student := newTestUser(t, users, "repo.student@example.com", user.RoleStudent)
	now := core.NowFunc().Truncate(time.Millisecond)

	rub, err := rubrics.CreateRubric(ctx, rubric.Rubric{
		ID:        core.NewID(),
		TeacherID: teacher.ID,
		Name:      "Essay",
		Criteria:  []rubric.Criterion{{Name: "Clarity", Weight: 2}, {Name: "Sources", Weight: 1}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	gotRub, err := rubrics.GetRubricByID(ctx, rub.ID)
	require.NoError(t, err)
	assert.Equal(t, rub.Criteria, gotRub.Criteria)

	c, err := courses.CreateCourse(ctx, course.Course{
		ID: core.NewID(), TeacherID: teacher.ID, Name: "Biology 101", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	found, err := courses.FilterCourses(ctx, course.QueryFilter{TeacherID: teacher.ID, Search: "bio"}, nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, c.ID, found[0].ID)

	due := now.Add(48 * time.Hour)
	a, err := courses.CreateAssignment(ctx, course.Assignment{
		ID: core.NewID(), CourseID: c.ID, RubricID: rub.ID, Title: "Cells", DueAt: &due, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	gotA, err := courses.GetAssignmentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rub.ID, gotA.RubricID)
	require.NotNil(t, gotA.DueAt)
	assert.True(t, due.Equal(*gotA.DueAt))

	sub, err := subs.CreateSubmission(ctx, submission.Submission{
		ID: core.NewID(), AssignmentID: a.ID, StudentID: student.ID,
		ContentType: submission.ContentText, Content: "Mitochondria", Status: submission.StatusSubmitted,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	fb, err := feedback.CreateFeedback(ctx, assessment.Feedback{
		ID: core.NewID(), SubmissionID: sub.ID, Grade: "A-", Comments: "Good", AIGenerated: true, CreatedAt: now,
	})
	require.NoError(t, err)

	gotSub, err := subs.GetSubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusGraded, gotSub.Status)

	fbs, err := feedback.QueryFeedback(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, fbs, 1)
	assert.Equal(t, fb.ID, fbs[0].ID)

	_, err = feedback.CreateFeedback(ctx, assessment.Feedback{
		ID: core.NewID(), SubmissionID: core.NewID(), Grade: "B", CreatedAt: now,
	})
	assert.Equal(t, submission.ErrNotFound, err)

	require.NoError(t, rubrics.DeleteRubric(ctx, rub.ID))
	gotA, err = courses.GetAssignmentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, gotA.RubricID)

	require.NoError(t, courses.DeleteCourse(ctx, c.ID))
	_, err = courses.GetAssignmentByID(ctx, a.ID)
	assert.Equal(t, course.ErrAssignmentNotFound, err)
}

type fakeTx struct{ err error }

func (tx fakeTx) Rollback() error { return tx.err }

func TestRollback(t *testing.T) {
	cause := errors.New("inserting feedback")

	assert.Equal(t, cause, rollback(fakeTx{}, cause))
	assert.Equal(t, cause, rollback(fakeTx{err: sql.ErrTxDone}, cause))

	err := rollback(fakeTx{err: errors.New("driver: bad connection")}, cause)
	assert.True(t, core.IsShutdown(err))
	assert.Equal(t, "inserting feedback: rolling back transaction: driver: bad connection", err.Error())
}
