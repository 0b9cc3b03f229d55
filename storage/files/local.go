package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

// LocalStore keeps files under a directory of the local disk.
type LocalStore struct {
	root string
}

var _ core.FileStore = (*LocalStore)(nil) // interface compliance check

func NewLocalStore(root string) (*LocalStore, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving storage dir")
	}
	if err = os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &LocalStore{root: root}, nil
}

var errInvalidKey = errors.New("invalid file key")

// path maps key inside root, refusing keys escaping it.
func (s *LocalStore) path(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if key == "" || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", errInvalidKey
	}
	return p, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return errors.Wrap(err, "creating file dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err = io.Copy(tmp, readerCtx{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %q", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %q", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), p), "saving %q", key)
}

func (s *LocalStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, core.ErrFileNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrFileNotFound
		}
		return nil, errors.Wrapf(err, "opening %q", key)
	}
	return f, nil
}

// readerCtx stops reading once ctx is done.
type readerCtx struct {
	ctx context.Context
	r   io.Reader
}

func (rc readerCtx) Read(p []byte) (int, error) {
	if err := rc.ctx.Err(); err != nil {
		return 0, err
	}
	return rc.r.Read(p)
}
