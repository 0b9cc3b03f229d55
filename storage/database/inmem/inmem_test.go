package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(Open())

	usr := user.User{ID: core.NewID(), FullName: "Tea Cher", Email: "teacher@test.cd", Roles: []string{user.RoleTeacher}}
	require.NoError(t, usr.SetPassword("pwd"))
	usr, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "teacher@test.cd"))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "teacher@test.cd", usr))

	// the stored copy is not shared with the caller
	usr.Roles[0] = user.RoleAdmin
	got, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleTeacher}, got.Roles)

	got.FullName = "Renamed"
	got.PasswordHash = nil
	got, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FullName)
	assert.NoError(t, got.CheckPassword("pwd"))

	require.NoError(t, repo.DeleteUsersByID(ctx, usr.ID))
	_, err = repo.GetUserByEmail(ctx, usr.Email)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestCourseRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(Open())

	c, err := repo.CreateCourse(ctx, course.Course{ID: core.NewID(), Name: "Biology"})
	require.NoError(t, err)
	a, err := repo.CreateAssignment(ctx, course.Assignment{ID: core.NewID(), CourseID: c.ID, Title: "Cells"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCourse(ctx, c.ID))
	_, err = repo.GetAssignmentByID(ctx, a.ID)
	assert.Equal(t, course.ErrAssignmentNotFound, err)
	_, err = repo.GetCourseByID(ctx, c.ID)
	assert.Equal(t, course.ErrNotFound, err)
}

func TestFeedbackRepository_CreateFeedback(t *testing.T) {
	ctx := context.Background()
	db := Open()
	courses := NewCourseRepository(db)
	subs := NewSubmissionRepository(db)
	repo := NewFeedbackRepository(db)

	c, err := courses.CreateCourse(ctx, course.Course{ID: core.NewID(), Name: "Biology"})
	require.NoError(t, err)
	a, err := courses.CreateAssignment(ctx, course.Assignment{ID: core.NewID(), CourseID: c.ID, Title: "Cells"})
	require.NoError(t, err)
	sub, err := subs.CreateSubmission(ctx, submission.Submission{ID: core.NewID(), AssignmentID: a.ID, Status: submission.StatusSubmitted})
	require.NoError(t, err)

	_, err = repo.CreateFeedback(ctx, assessment.Feedback{ID: core.NewID(), SubmissionID: core.NewID(), Grade: "A"})
	assert.Equal(t, submission.ErrNotFound, err)

	now := core.NowFunc()
	fb, err := repo.CreateFeedback(ctx, assessment.Feedback{ID: core.NewID(), SubmissionID: sub.ID, Grade: "A", CreatedAt: now})
	require.NoError(t, err)

	got, err := subs.GetSubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusGraded, got.Status)
	assert.True(t, now.Equal(got.UpdatedAt))

	fbs, err := repo.QueryFeedback(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []assessment.Feedback{fb}, fbs)
}
