package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

//go:embed catalog.yaml
var defaultFixtures []byte

type document struct {
	Courses []Course `yaml:"courses"`
	Lessons []Lesson `yaml:"lessons"`
	Events  []Event  `yaml:"events"`
}

// Default returns the built-in campus catalog.
func Default() (*Catalog, error) {
	return Parse(defaultFixtures)
}

// MustDefault is Default for program start-up and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in fixtures are invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.WrapError("catalog", "Load", shared.ErrNotFound, "read catalog file", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, shared.WrapError("catalog", "Parse", shared.ErrInvalidFormat, "decode catalog", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		courses:   doc.Courses,
		byName:    make(map[string]int, len(doc.Courses)),
		lessons:   make(map[string]Lesson, len(doc.Lessons)),
		questions: make(map[string]questionRef),
		events:    doc.Events,
	}

	for i, course := range doc.Courses {
		if course.Credits <= 0 {
			return nil, fmt.Errorf("course %q: %w", course.Name, shared.ErrInvalidCredits)
		}
		if _, dup := c.byName[course.Name]; dup {
			return nil, shared.WrapError("catalog", "Validate", shared.ErrAlreadyExists,
				"duplicate course", fmt.Errorf("%q", course.Name))
		}
		c.byName[course.Name] = i
	}

	for _, course := range doc.Courses {
		for _, p := range course.Prerequisites {
			if _, ok := c.byName[p]; !ok {
				return nil, fmt.Errorf("course %q requires %q: %w", course.Name, p, shared.ErrUnknownPrereq)
			}
		}
		if course.Successor != "" {
			if _, ok := c.byName[course.Successor]; !ok {
				return nil, fmt.Errorf("course %q is followed by %q: %w", course.Name, course.Successor, shared.ErrUnknownPrereq)
			}
		}
	}

	for _, lesson := range doc.Lessons {
		if _, dup := c.lessons[lesson.Topic]; dup {
			return nil, shared.WrapError("catalog", "Validate", shared.ErrAlreadyExists,
				"duplicate lesson topic", fmt.Errorf("%q", lesson.Topic))
		}
		c.lessons[lesson.Topic] = lesson
		for _, item := range lesson.Items {
			if !item.IsQuiz() {
				continue
			}
			q := *item.Quiz
			if _, dup := c.questions[q.ID]; dup || q.ID == "" {
				return nil, fmt.Errorf("question %q in %q: %w", q.ID, lesson.Topic, shared.ErrDuplicateQuestion)
			}
			if !contains(q.Options, q.Correct) {
				return nil, fmt.Errorf("question %q: %w", q.ID, shared.ErrInvalidQuizOptions)
			}
			c.questions[q.ID] = questionRef{topic: lesson.Topic, question: q}
		}
	}

	return c, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
