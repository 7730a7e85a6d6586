package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords is the keyword model definition.
//
//	categories:
//	  water: [water, thirsty, drinking water]
//	  shelter: [tent, shelter, homeless]
type Keywords struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadKeywords loads a keyword model definition from a YAML file
func LoadKeywords(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, err
	}

	return &kw, nil
}
