package inmemdb

import (
	"context"
	"sort"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
)

type rubricRepository struct {
	db *DB
}

var _ rubric.Repository = (*rubricRepository)(nil) // interface compliance check

func NewRubricRepository(db *DB) rubric.Repository {
	return &rubricRepository{db: db}
}

func (repo *rubricRepository) CreateRubric(_ context.Context, r rubric.Rubric) (rubric.Rubric, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.Criteria = append([]rubric.Criterion(nil), r.Criteria...)
	repo.db.rubrics[r.ID] = &r
	return r, nil
}

func (repo *rubricRepository) GetRubricByID(_ context.Context, id string) (rubric.Rubric, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.rubrics[id]; ok {
		return *r, nil
	}
	return rubric.Rubric{}, rubric.ErrNotFound
}

func (repo *rubricRepository) QueryRubrics(_ context.Context, teacherID string) ([]rubric.Rubric, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rubrics := make([]rubric.Rubric, 0)
	for _, r := range repo.db.rubrics {
		if teacherID == "" || r.TeacherID == teacherID {
			rubrics = append(rubrics, *r)
		}
	}
	sort.Slice(rubrics, func(i, j int) bool { return rubrics[i].Name < rubrics[j].Name })
	return rubrics, nil
}

func (repo *rubricRepository) DeleteRubric(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.rubrics, id)
	for _, a := range repo.db.assignments {
		if a.RubricID == id {
			a.RubricID = ""
		}
	}
	return nil
}
