// Package storage picks the repositories and the file store backing the apps.
package storage

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/database"
	inmemdb "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/database/inmem"
	sqlxrepos "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/database/sqlx"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/files"
)

const (
	BackendLocal = "local"
	BackendB2    = "b2"
)

var errUnknownBackend = errors.New("unknown storage backend")

type Repositories struct {
	Users       user.Repository
	Courses     course.Repository
	Rubrics     rubric.Repository
	Submissions submission.Repository
	Feedback    assessment.Repository

	// SQL is nil for the in-memory repositories.
	SQL *sqlx.DB

	closer io.Closer
}

func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// OpenRepositories returns the in-memory repositories when conf.Database.InMemory is set.
// Otherwise it connects to PostgreSQL, creating the database and applying migrations when migrate is true.
func OpenRepositories(conf *core.Config, migrate bool) (*Repositories, error) {
	if conf.Database.InMemory {
		db := inmemdb.Open()
		return &Repositories{
			Users:       inmemdb.NewUserRepository(db),
			Courses:     inmemdb.NewCourseRepository(db),
			Rubrics:     inmemdb.NewRubricRepository(db),
			Submissions: inmemdb.NewSubmissionRepository(db),
			Feedback:    inmemdb.NewFeedbackRepository(db),
			closer:      db,
		}, nil
	}

	if migrate {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Repositories{
		Users:       sqlxrepos.NewUserRepository(db),
		Courses:     sqlxrepos.NewCourseRepository(db),
		Rubrics:     sqlxrepos.NewRubricRepository(db),
		Submissions: sqlxrepos.NewSubmissionRepository(db),
		Feedback:    sqlxrepos.NewFeedbackRepository(db),
		SQL:         db,
		closer:      db,
	}, nil
}

// OpenFileStore returns the configured store for uploaded submissions.
func OpenFileStore(ctx context.Context, conf core.StorageConfig) (core.FileStore, error) {
	switch conf.Backend {
	case BackendLocal, "":
		return files.NewLocalStore(conf.LocalDir)
	case BackendB2:
		return files.NewB2Store(ctx, conf.B2AccountID, conf.B2AppKey, conf.B2Bucket)
	default:
		return nil, errors.Wrap(errUnknownBackend, conf.Backend)
	}
}
