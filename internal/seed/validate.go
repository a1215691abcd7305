package seed

import (
	"fmt"
	"strings"

	"github.com/stemsi/exstem-learn/internal/model"
)

const maxCourseCodeLen = 50

// Issue is one validation problem in a bank file.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports every issue found in a bank.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question bank validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// NormalizeBank trims text, upper-cases answers and validates the bank.
func NormalizeBank(bank Bank) (Bank, error) {
	c := &issueCollector{}
	switch bank.Version {
	case 0:
		c.add("version", "is required")
	case 1:
	default:
		c.add("version", fmt.Sprintf("unsupported version %d", bank.Version))
	}

	bank.Course.Code = strings.TrimSpace(bank.Course.Code)
	bank.Course.Title = strings.TrimSpace(bank.Course.Title)
	if bank.Course.Code == "" {
		c.add("course.code", "is required")
	} else if len(bank.Course.Code) > maxCourseCodeLen {
		c.add("course.code", fmt.Sprintf("must be at most %d characters", maxCourseCodeLen))
	}
	if bank.Course.Title == "" {
		c.add("course.title", "is required")
	}
	if len(bank.Questions) == 0 {
		c.add("questions", "must include at least one entry")
	}

	seen := make(map[string]int, len(bank.Questions))
	questions := make([]QuestionSpec, len(bank.Questions))
	for i, q := range bank.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		q.Question = strings.TrimSpace(q.Question)
		q.Options.A = strings.TrimSpace(q.Options.A)
		q.Options.B = strings.TrimSpace(q.Options.B)
		q.Options.C = strings.TrimSpace(q.Options.C)
		q.Options.D = strings.TrimSpace(q.Options.D)
		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))

		if q.Question == "" {
			c.add(prefix+".question", "is required")
		} else if first, dup := seen[q.Question]; dup {
			c.add(prefix+".question", fmt.Sprintf("duplicates questions[%d]", first))
		} else {
			seen[q.Question] = i
		}
		texts := []string{q.Options.A, q.Options.B, q.Options.C, q.Options.D}
		for j, letter := range model.Options {
			if texts[j] == "" {
				c.add(prefix+".options."+letter, "is required")
			}
		}
		if !model.IsOption(q.Answer) {
			c.add(prefix+".answer", "must be one of A, B, C, D")
		}
		questions[i] = q
	}
	bank.Questions = questions

	if err := c.result(); err != nil {
		return Bank{}, err
	}
	return bank, nil
}
