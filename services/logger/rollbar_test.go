package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

func TestRollbarLogger_Print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: "5f0c8c1e-7a43-4c1e-9a8a-2f1d3c4b5a6e", Email: "teacher@example.com"}
	logger.Error("assessing submission", errors.New("gateway down"), usr, map[string]interface{}{"submission": "s1"})

	out := buf.String()
	assert.Contains(t, out, "[ERROR] assessing submission")
	assert.Contains(t, out, "gateway down")
	assert.Contains(t, out, "user: 5f0c8c1e-7a43-4c1e-9a8a-2f1d3c4b5a6e <teacher@example.com>")
	assert.Contains(t, out, "map[submission:s1]")
}

func TestRollbarLogger_PrepareDropsUsers(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), core.NewTestConfig())

	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{user.User{ID: "u1"}, err, user.User{ID: "u2"}})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
