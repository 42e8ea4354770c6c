// Package eval runs a question set against a live api instance and reports
// per-question retrieval and citation quality. It is an offline operator
// tool, not part of the serving path.
package eval

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Question struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Mode     string `yaml:"mode,omitempty"`
	// ExpectSources lists document filenames an answer is expected to cite.
	ExpectSources []string `yaml:"expect_sources,omitempty"`
}

type QuestionSet struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

func LoadQuestionSet(path string) (*QuestionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}

	var set QuestionSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse question set: %w", err)
	}
	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("question set %s has no questions", path)
	}
	for i, q := range set.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d has empty text", i)
		}
		if q.ID == "" {
			set.Questions[i].ID = fmt.Sprintf("q%03d", i+1)
		}
	}
	return &set, nil
}

var refusalPhrases = []string{
	"cannot answer",
	"can't answer",
	"no information",
	"not enough information",
	"not contain",
	"нет информации",
	"не содержит",
}

// IsRefusal reports whether an answer declines to answer from the provided
// context. Phrase matching is crude but stable enough to trend over time.
func IsRefusal(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
