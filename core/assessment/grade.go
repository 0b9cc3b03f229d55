package assessment

import (
	"regexp"
	"strings"
)

// FallbackGrade is used when a completion carries no well-formed grade token.
const FallbackGrade = "B"

// Grades is the fixed set of letter grades, best first.
var Grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}

// gradeRegex matches "Grade: B+", "**Grade:** A-", "grade - c" ...
// The letter must not be followed by another letter or digit ("Grade: Average" is no grade).
var gradeRegex = regexp.MustCompile(`(?i)\bgrade\b[\s*_]*[:=\-][\s*_]*([a-f])([+\-]?)(?:[^a-z0-9+\-]|$)`)

// ExtractGrade returns the first grade token found in the completion, or FallbackGrade.
func ExtractGrade(completion string) string {
	for _, m := range gradeRegex.FindAllStringSubmatch(completion, -1) {
		letter := strings.ToUpper(m[1])
		if letter == "E" {
			continue
		}
		if letter == "F" {
			return "F"
		}
		return letter + m[2]
	}
	return FallbackGrade
}

func IsValidGrade(g string) bool {
	for _, grade := range Grades {
		if g == grade {
			return true
		}
	}
	return false
}
