package content

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var embeddedFallback []byte

//go:embed fallback.schema.json
var fallbackSchema string

// fallbackDoc is the YAML layout of a fallback content file.
type fallbackDoc struct {
	Concepts  []fallbackConcept `yaml:"concepts"`
	NextSteps []nextStep        `yaml:"next_steps"`
}

type fallbackConcept struct {
	ID         string   `yaml:"id"`
	Module     string   `yaml:"module"`
	Level      string   `yaml:"level"`
	Definition string   `yaml:"definition"`
	Theory     string   `yaml:"theory"`
	Example    string   `yaml:"example"`
	Related    []string `yaml:"related"`
	Practices  []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
	} `yaml:"practices"`
	CaseStudies []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"case_studies"`
	Quizzes []struct {
		ID            string `yaml:"id"`
		Question      string `yaml:"question"`
		Options       string `yaml:"options"`
		CorrectAnswer string `yaml:"correct_answer"`
		Difficulty    string `yaml:"difficulty"`
	} `yaml:"quizzes"`
}

// nextStep is one "good next step": learn Prerequisite, then Dependent.
type nextStep struct {
	Prerequisite string `yaml:"prerequisite"`
	Dependent    string `yaml:"dependent"`
}

// StaticStore serves the hard-coded fallback table.
type StaticStore struct {
	*table
}

// Source reports SourceFallback.
func (s *StaticStore) Source() Source {
	return SourceFallback
}

// LoadFallback builds the static store from the embedded table, or from
// every YAML file under dir when dir is non-empty.
func LoadFallback(dir string) (*StaticStore, error) {
	var docs []fallbackDoc
	if dir == "" {
		doc, err := parseFallback(embeddedFallback)
		if err != nil {
			return nil, fmt.Errorf("embedded fallback: %w", err)
		}
		docs = append(docs, doc)
	} else {
		var err error
		docs, err = walkFallback(dir)
		if err != nil {
			return nil, err
		}
	}

	t := buildStaticTable(docs)
	if len(t.concepts) == 0 {
		return nil, fmt.Errorf("no fallback concepts found")
	}
	return &StaticStore{table: t}, nil
}

func walkFallback(dir string) ([]fallbackDoc, error) {
	var docs []fallbackDoc
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := parseFallback(data)
		if err != nil {
			slog.Warn("skipping invalid fallback YAML", "path", path, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return docs, nil
}

// parseFallback validates data against the fallback schema and decodes it.
func parseFallback(data []byte) (fallbackDoc, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fallbackDoc{}, fmt.Errorf("parsing YAML: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fallbackSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fallbackDoc{}, fmt.Errorf("validating: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fallbackDoc{}, fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
	}

	var doc fallbackDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fallbackDoc{}, fmt.Errorf("decoding: %w", err)
	}
	return doc, nil
}

func buildStaticTable(docs []fallbackDoc) *table {
	t := newTable()
	for _, doc := range docs {
		for _, fc := range doc.Concepts {
			c := Concept{
				ID:           fc.ID,
				Name:         DisplayName(fc.ID),
				Definition:   fc.Definition,
				Theory:       fc.Theory,
				Example:      fc.Example,
				Level:        ParseLevel(fc.Level),
				Module:       fc.Module,
				Related:      append([]string{}, fc.Related...),
				QuizIDs:      []string{},
				PracticeIDs:  []string{},
				CaseStudyIDs: []string{},
			}
			if c.Module == "" {
				c.Module = ModuleFor(c.ID)
			}

			var quizzes []QuizItem
			for _, fq := range fc.Quizzes {
				item, err := NewQuizItem(fq.ID, c.ID, fq.Question, fq.Options, fq.CorrectAnswer, fq.Difficulty)
				if err != nil {
					slog.Warn("skipping fallback quiz", "concept", c.ID, "error", err)
					continue
				}
				c.QuizIDs = append(c.QuizIDs, item.ID)
				quizzes = append(quizzes, item)
			}
			var practices []PracticeItem
			for _, fp := range fc.Practices {
				c.PracticeIDs = append(c.PracticeIDs, fp.ID)
				practices = append(practices, PracticeItem{ID: fp.ID, ConceptID: c.ID, Description: fp.Description})
			}
			var cases []CaseStudy
			for _, fcs := range fc.CaseStudies {
				title := fcs.Title
				if title == "" {
					title = fcs.ID
				}
				c.CaseStudyIDs = append(c.CaseStudyIDs, fcs.ID)
				cases = append(cases, CaseStudy{ID: fcs.ID, ConceptID: c.ID, Title: title, Description: fcs.Description})
			}

			if !t.addConcept(c) {
				slog.Warn("duplicate fallback concept ignored", "concept", c.ID)
				continue
			}
			t.quizzes[c.ID] = quizzes
			t.practices[c.ID] = practices
			t.caseStudies[c.ID] = cases
		}
		for _, step := range doc.NextSteps {
			t.nextSteps = appendUnique(t.nextSteps, step.Prerequisite, step.Dependent)
		}
	}
	t.pruneRelated()
	return t
}

func appendUnique(list []string, ids ...string) []string {
	for _, id := range ids {
		found := false
		for _, existing := range list {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			list = append(list, id)
		}
	}
	return list
}
