// Package inmemdb keeps every table in memory. It backs the tests and DEBUG runs without PostgreSQL.
package inmemdb

import (
	"sync"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

// DB guards all tables with a single lock so that multi-table writes are atomic.
type DB struct {
	sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	assignments map[string]*course.Assignment
	rubrics     map[string]*rubric.Rubric
	submissions map[string]*submission.Submission
	feedback    map[string]*assessment.Feedback
}

func Open() *DB {
	db := new(DB)
	db.Reset()
	return db
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()

	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.assignments = make(map[string]*course.Assignment)
	db.rubrics = make(map[string]*rubric.Rubric)
	db.submissions = make(map[string]*submission.Submission)
	db.feedback = make(map[string]*assessment.Feedback)
}

func (db *DB) Close() error { return nil }
