package rubric

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

// Criterion is a weighted grading criterion. Weights are relative to the rubric's total weight.
type Criterion struct {
	Name        string  `json:"name" validate:"required,notblank"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight" validate:"gt=0"`
}

type Rubric struct {
	ID          string      `json:"id"`
	TeacherID   string      `json:"teacher_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Criteria    []Criterion `json:"criteria"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

func (r Rubric) TotalWeight() float64 {
	var total float64
	for _, c := range r.Criteria {
		total += c.Weight
	}
	return total
}

// Prompt renders the rubric as grading context for the LLM.
func (r Rubric) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grading rubric: %s\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Description)
	}
	b.WriteString("Criteria:\n")
	total := r.TotalWeight()
	for _, c := range r.Criteria {
		pct := 0.0
		if total > 0 {
			pct = c.Weight / total * 100
		}
		fmt.Fprintf(&b, "- %s (weight: %.0f%%)", c.Name, pct)
		if c.Description != "" {
			fmt.Fprintf(&b, ": %s", c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type NewRubric struct {
	Name        string      `json:"name" validate:"required,notblank,max=200"`
	Description string      `json:"description"`
	Criteria    []Criterion `json:"criteria" validate:"required,min=1,dive"`
}

func (nr *NewRubric) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Description = core.CleanString(nr.Description)
	for i := range nr.Criteria {
		nr.Criteria[i].Name = core.CleanString(nr.Criteria[i].Name)
		nr.Criteria[i].Description = core.CleanString(nr.Criteria[i].Description)
	}
	return validate.Struct(nr)
}
