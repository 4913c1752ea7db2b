// Package catalog holds the immutable campus lookup tables: courses with
// prerequisites and credits, lesson scripts with embedded quiz items, and
// event listings. A Catalog is built once and only read afterwards, so it
// is safe for concurrent use.
package catalog

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Course is a registrable course definition.
type Course struct {
	Name          string   `yaml:"name" json:"name"`
	Prerequisites []string `yaml:"prerequisites" json:"prerequisites"`
	Credits       int      `yaml:"credits" json:"credits"`

	// Successor is the course suggested once this one is mastered.
	Successor string `yaml:"successor,omitempty" json:"successor,omitempty"`
}

// Question is a quiz item. Correct is never sent to observers.
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Text    string   `yaml:"question" json:"question"`
	Options []string `yaml:"options" json:"options"`
	Correct string   `yaml:"correct" json:"-"`
}

// IsCorrect reports whether answer exactly matches the stored option.
func (q Question) IsCorrect(answer string) bool {
	return answer == q.Correct
}

// Item is one unit of a lesson script: either a text unit or a quiz item.
type Item struct {
	Text string    `yaml:"text,omitempty"`
	Quiz *Question `yaml:"quiz,omitempty"`
}

// IsQuiz reports whether the item is a quiz item.
func (i Item) IsQuiz() bool {
	return i.Quiz != nil
}

// Lesson is the ordered script for one topic.
type Lesson struct {
	Topic string `yaml:"topic"`
	Items []Item `yaml:"items"`
}

// Event is a campus event listing.
type Event struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title" json:"title"`
	Date  string   `yaml:"date" json:"date"`
	Tags  []string `yaml:"tags" json:"tags"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is the validated, indexed set of fixtures.
type Catalog struct {
	courses   []Course
	byName    map[string]int
	lessons   map[string]Lesson
	questions map[string]questionRef
	events    []Event
}

type questionRef struct {
	topic    string
	question Question
}

// Course looks up a course by name.
func (c *Catalog) Course(name string) (Course, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Course{}, false
	}
	return c.courses[i], true
}

// Courses returns all courses in catalog order.
func (c *Catalog) Courses() []Course {
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// Credits sums the credits of the named courses. Unknown names count as zero.
func (c *Catalog) Credits(names []string) int {
	total := 0
	for _, n := range names {
		if course, ok := c.Course(n); ok {
			total += course.Credits
		}
	}
	return total
}

// Successor returns the course that follows topic in the progression, if any.
func (c *Catalog) Successor(topic string) (string, bool) {
	course, ok := c.Course(topic)
	if !ok || course.Successor == "" {
		return "", false
	}
	return course.Successor, true
}

// Lesson returns the script for a topic.
func (c *Catalog) Lesson(topic string) (Lesson, bool) {
	l, ok := c.lessons[topic]
	return l, ok
}

// Topics returns the topics that have a lesson script, in course order.
func (c *Catalog) Topics() []string {
	var out []string
	for _, course := range c.courses {
		if _, ok := c.lessons[course.Name]; ok {
			out = append(out, course.Name)
		}
	}
	return out
}

// Question finds a quiz item by id across all lessons and returns it along
// with the topic that owns it.
func (c *Catalog) Question(id string) (Question, string, bool) {
	ref, ok := c.questions[id]
	if !ok {
		return Question{}, "", false
	}
	return ref.question, ref.topic, true
}

// Events returns the event listings in catalog order.
func (c *Catalog) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
