// Package catalog holds the question → events mapping the game draws its
// secrets from. A Catalog is built once at startup and is read-only after
// that, so it is safe to share between request goroutines without locking.
package catalog

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	ErrCatalogEmpty    = errors.New("catalog has no questions")
	ErrUnknownQuestion = errors.New("unknown question")
)

// QuestionID identifies a group of candidate events.
type QuestionID int

func (q QuestionID) String() string {
	return strconv.Itoa(int(q))
}

// ParseQuestionID parses the string form used as a key in catalog files
// and inside tokens.
func ParseQuestionID(s string) (QuestionID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("question id %q: %w", s, err)
	}
	return QuestionID(n), nil
}

type Catalog struct {
	events    map[QuestionID][]string
	questions []QuestionID
}

// New validates entries and copies them into a Catalog. Later changes to
// entries do not affect the returned value.
func New(entries map[QuestionID][]string) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrCatalogEmpty
	}

	events := make(map[QuestionID][]string, len(entries))
	for q, candidates := range entries {
		if len(candidates) == 0 {
			return nil, fmt.Errorf("question %d has no events", q)
		}
		for _, e := range candidates {
			// A leading NUL byte is lost when the secret goes through its
			// big-endian integer form, so the token could not round trip.
			if strings.HasPrefix(e, "\x00") {
				return nil, fmt.Errorf("question %d: event %q starts with a NUL character", q, e)
			}
		}
		events[q] = slices.Clone(candidates)
	}

	questions := lo.Keys(events)
	slices.Sort(questions)

	return &Catalog{events: events, questions: questions}, nil
}

// Load reads a catalog file. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON. Keys must be base-10 integers.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	raw := map[string][]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	entries := make(map[QuestionID][]string, len(raw))
	for key, candidates := range raw {
		q, err := ParseQuestionID(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if _, dup := entries[q]; dup {
			return nil, fmt.Errorf("parse catalog %s: duplicate question %d", path, q)
		}
		entries[q] = candidates
	}

	return New(entries)
}

// Questions returns the question IDs in ascending order.
func (c *Catalog) Questions() []QuestionID {
	return slices.Clone(c.questions)
}

// Events returns a copy of the candidates for q.
func (c *Catalog) Events(q QuestionID) ([]string, error) {
	candidates, ok := c.events[q]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", q, ErrUnknownQuestion)
	}
	return slices.Clone(candidates), nil
}

func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

func (c *Catalog) EventCount() int {
	return lo.SumBy(c.questions, func(q QuestionID) int {
		return len(c.events[q])
	})
}

// PickQuestion returns a uniformly random question.
func (c *Catalog) PickQuestion() (QuestionID, error) {
	if c == nil || len(c.questions) == 0 {
		return 0, ErrCatalogEmpty
	}
	n, err := randomIndex(len(c.questions))
	if err != nil {
		return 0, err
	}
	return c.questions[n], nil
}

// PickEvent returns a uniformly random event for q.
func (c *Catalog) PickEvent(q QuestionID) (string, error) {
	candidates, ok := c.events[q]
	if !ok {
		return "", fmt.Errorf("question %d: %w", q, ErrUnknownQuestion)
	}
	n, err := randomIndex(len(candidates))
	if err != nil {
		return "", err
	}
	return candidates[n], nil
}

func randomIndex(n int) (int, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("generate random index: %w", err)
	}
	return int(i.Int64()), nil
}
