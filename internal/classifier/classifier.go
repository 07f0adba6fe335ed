// Package classifier implements a multinomial naive Bayes text classifier.
//
// Models are trained offline from a YAML corpus and stored as JSON.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatVersion is the model file version written by Save.
const FormatVersion = 1

// DefaultAlpha is the Laplace smoothing parameter.
const DefaultAlpha = 1.0

// ErrEmptyCorpus is returned when training data has no usable documents.
var ErrEmptyCorpus = errors.New("corpus has no documents")

// Category holds the per-class statistics.
type Category struct {
	Name       string         `json:"name"`
	Documents  int            `json:"documents"`
	TokenCount int            `json:"token_count"`
	Counts     map[string]int `json:"counts"`
}

// Model is a trained classifier.
type Model struct {
	Version        int        `json:"version"`
	Alpha          float64    `json:"alpha"`
	VocabularySize int        `json:"vocabulary_size"`
	TotalDocuments int        `json:"total_documents"`
	Categories     []Category `json:"categories"`
}

// Document is one labelled training example.
type Document struct {
	Category string `yaml:"category" json:"category"`
	Text     string `yaml:"text" json:"text"`
}

// Train fits a model. Categories keep the order of their first appearance.
func Train(docs []Document, alpha float64) (*Model, error) {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	index := make(map[string]int)
	vocab := make(map[string]struct{})
	m := &Model{Version: FormatVersion, Alpha: alpha}

	for _, doc := range docs {
		name := strings.TrimSpace(doc.Category)
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(m.Categories)
			index[name] = i
			m.Categories = append(m.Categories, Category{Name: name, Counts: make(map[string]int)})
		}

		cat := &m.Categories[i]
		cat.Documents++
		m.TotalDocuments++
		for _, tok := range Tokenize(doc.Text) {
			cat.Counts[tok]++
			cat.TokenCount++
			vocab[tok] = struct{}{}
		}
	}

	if m.TotalDocuments == 0 {
		return nil, ErrEmptyCorpus
	}
	m.VocabularySize = len(vocab)
	return m, nil
}

// Predict returns the most likely category for text.
// Ties resolve to the category trained first.
func (m *Model) Predict(text string) string {
	scores := m.Scores(text)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if len(m.Categories) == 0 {
		return ""
	}
	return m.Categories[best].Name
}

// Scores returns the unnormalised log posterior of every category, in model order.
// Tokens never seen in training are ignored.
func (m *Model) Scores(text string) []float64 {
	tokens := Tokenize(text)
	v := float64(m.VocabularySize)
	scores := make([]float64, len(m.Categories))

	for i, cat := range m.Categories {
		score := math.Log(float64(cat.Documents) / float64(m.TotalDocuments))
		denom := math.Log(float64(cat.TokenCount) + m.Alpha*v)
		for _, tok := range tokens {
			if !m.known(tok) {
				continue
			}
			score += math.Log(float64(cat.Counts[tok])+m.Alpha) - denom
		}
		scores[i] = score
	}
	return scores
}

func (m *Model) known(tok string) bool {
	for _, cat := range m.Categories {
		if _, ok := cat.Counts[tok]; ok {
			return true
		}
	}
	return false
}

// CategoryNames lists the categories in model order.
func (m *Model) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, cat := range m.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Tokenize lowercases text and splits it into word tokens of at least two characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// Save writes the model as indented JSON with sorted keys.
func (m *Model) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Read parses a model from r.
func Read(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported model version %d", m.Version)
	}
	if len(m.Categories) == 0 || m.TotalDocuments == 0 {
		return nil, errors.New("model has no categories")
	}
	if m.Alpha <= 0 {
		m.Alpha = DefaultAlpha
	}
	return &m, nil
}

// Load reads a model file from disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Summary describes a model for humans, one category per line.
func (m *Model) Summary() string {
	var b strings.Builder
	cats := append([]Category(nil), m.Categories...)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Documents > cats[j].Documents })
	fmt.Fprintf(&b, "%d documents, %d terms\n", m.TotalDocuments, m.VocabularySize)
	for _, cat := range cats {
		fmt.Fprintf(&b, "  %-28s %5d docs %7d tokens\n", cat.Name, cat.Documents, cat.TokenCount)
	}
	return b.String()
}
