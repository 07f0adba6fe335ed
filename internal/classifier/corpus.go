package classifier

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Corpus is the YAML training file layout:
//
//	documents:
//	  - category: sci.crypt
//	    text: "public key encryption"
type Corpus struct {
	Alpha     float64    `yaml:"alpha"`
	Documents []Document `yaml:"documents"`
}

// ReadCorpus parses a YAML corpus.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	var c Corpus
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCorpus
		}
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return &c, nil
}

// LoadCorpus reads a YAML corpus from disk.
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadCorpus(f)
}

// Train fits a model on the corpus documents.
func (c *Corpus) Train() (*Model, error) {
	return Train(c.Documents, c.Alpha)
}
