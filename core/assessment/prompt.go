package assessment

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
)

const (
	// maxInlineText caps the student's text sent to the gateway, in bytes.
	maxInlineText = 100_000
	// defaultMaxFileSize applies when no upload limit is configured.
	defaultMaxFileSize = 20 << 20

	systemPrompt = `You are an experienced teacher's grading assistant. ` +
		`Assess the student's work fairly and constructively. ` +
		`Start your answer with a line of the form "Grade: X" where X is one of ` +
		`A+, A, A-, B+, B, B-, C+, C, C-, D+, D, D-, F. ` +
		`Then give feedback covering strengths, areas for improvement and concrete suggestions.`
)

var errInvalidFileData = errors.New("fileData must be base64 encoded")

type promptContext struct {
	Title       string
	Description string
	Rubric      *rubric.Rubric
}

func (pc promptContext) header() string {
	var b strings.Builder
	if pc.Title != "" {
		fmt.Fprintf(&b, "Assignment: %s\n", pc.Title)
	}
	if pc.Description != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", pc.Description)
	}
	if pc.Rubric != nil {
		b.WriteString("\n")
		b.WriteString(pc.Rubric.Prompt())
	}
	return b.String()
}

func textParts(pc promptContext, text string) []ContentPart {
	return []ContentPart{{Text: pc.header() + "\nStudent submission:\n" + truncate(text, maxInlineText)}}
}

// fileParts inlines textual files, attaches images and only names other files.
func fileParts(pc promptContext, fileName, fileType string, data []byte) []ContentPart {
	mediaType := mediaTypeOf(fileType, data)
	header := pc.header()

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return []ContentPart{
			{Text: header + "\nThe student's submission is the attached image."},
			{ImageURL: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)},
		}
	case isTextual(mediaType) && utf8.Valid(data):
		return textParts(pc, string(data))
	default:
		name := fileName
		if name == "" {
			name = "a file"
		}
		return []ContentPart{{Text: fmt.Sprintf(
			"%s\nThe student submitted %s (%s) whose content cannot be displayed. "+
				"Assess it from the assignment context and mention that the file should be reviewed manually.",
			header, name, mediaType,
		)}}
	}
}

// decodeFileData accepts plain base64 or a data URL; the data URL media type wins over fileType.
func decodeFileData(fileData, fileType string) ([]byte, string, error) {
	if strings.HasPrefix(fileData, "data:") {
		comma := strings.IndexByte(fileData, ',')
		if comma < 0 {
			return nil, "", errInvalidFileData
		}
		meta := strings.TrimPrefix(fileData[:comma], "data:")
		if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
			fileType = mt
		}
		fileData = fileData[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fileData))
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(fileData)); err != nil {
			return nil, "", errInvalidFileData
		}
	}
	return data, fileType, nil
}

func mediaTypeOf(fileType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(fileType); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func isTextual(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/xml", "application/x-yaml", "application/javascript":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "\n[truncated]"
}
