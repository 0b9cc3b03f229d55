package submission

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

var ErrNotFound = errors.New("submission not found")

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		FilterSubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) CreateText(ctx context.Context, assignmentID, studentID string, ns NewTextSubmission) (Submission, error) {
	now := core.NowFunc()
	return svc.repo.CreateSubmission(ctx, Submission{
		ID:           core.NewID(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		ContentType:  ContentText,
		Content:      ns.Content,
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// CreateFile uploads the file to the FileStore before saving the submission.
func (svc *Service) CreateFile(ctx context.Context, assignmentID, studentID, fileName, fileType string, r io.Reader) (Submission, error) {
	now := core.NowFunc()
	sub := Submission{
		ID:           core.NewID(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		ContentType:  ContentFile,
		FileName:     cleanFileName(fileName),
		FileType:     fileType,
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub.Content = path.Join("submissions", assignmentID, sub.ID, sub.FileName)

	if err := svc.files.Put(ctx, sub.Content, r, fileType); err != nil {
		return Submission{}, errors.Wrap(err, "storing file")
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	if !core.IsValidID(id) {
		return Submission{}, ErrNotFound
	}
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, filter)
}

// ReadFile reads at most limit bytes of the submitted file.
func (svc *Service) ReadFile(ctx context.Context, sub Submission, limit int64) ([]byte, error) {
	if !sub.IsFile() {
		return nil, errors.New("not a file submission")
	}
	rc, err := svc.files.Get(ctx, sub.Content)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, limit))
	return data, errors.Wrap(err, "reading file")
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(core.CleanString(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
