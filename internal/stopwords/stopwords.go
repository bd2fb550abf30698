// Package stopwords loads the word lists ignored when matching spans
// against questions.
package stopwords

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var english []byte

type file struct {
	StopWords []string `yaml:"stop_words"`
}

// Default returns the embedded English list.
func Default() []string {
	words, err := parse(english)
	if err != nil {
		panic(err)
	}
	return words
}

// Load reads a YAML file of the form {stop_words: [...]}. An empty path
// returns the embedded English list.
func Load(path string) ([]string, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stopwords: read %s", path)
	}
	words, err := parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "stopwords: parse %s", path)
	}
	return words, nil
}

func parse(data []byte) ([]string, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.StopWords == nil {
		return nil, eris.New("missing stop_words key")
	}
	return f.StopWords, nil
}
