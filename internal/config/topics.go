package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TopicTemplate describes one topic every new interview starts with.
type TopicTemplate struct {
	Id              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	MissingSections []string `yaml:"missing_sections"`
}

type topicCatalogFile struct {
	Topics []TopicTemplate `yaml:"topics"`
}

func DefaultTopics() []TopicTemplate {
	return []TopicTemplate{
		{Id: "t1", Name: "System Overview", MissingSections: []string{"definition", "purpose"}},
		{Id: "t2", Name: "Architecture & Data Flow", MissingSections: []string{"inputs / outputs", "monitoring / deployment"}},
		{Id: "t3", Name: "Operations & Reliability", MissingSections: []string{"failure cases", "edge cases", "operational steps"}},
	}
}

// LoadTopics reads the topic catalog from path, or returns the built-in
// catalog when path is empty.
func LoadTopics(path string) ([]TopicTemplate, error) {
	if path == "" {
		return DefaultTopics(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}
	return ParseTopics(data)
}

func ParseTopics(data []byte) ([]TopicTemplate, error) {
	var catalog topicCatalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	if len(catalog.Topics) == 0 {
		return nil, fmt.Errorf("topics file defines no topics")
	}

	seen := make(map[string]bool, len(catalog.Topics))
	for i, t := range catalog.Topics {
		if t.Id == "" || t.Name == "" {
			return nil, fmt.Errorf("topic %d: id and name are required", i)
		}
		if seen[t.Id] {
			return nil, fmt.Errorf("topic %d: duplicate id %q", i, t.Id)
		}
		seen[t.Id] = true
	}
	return catalog.Topics, nil
}
