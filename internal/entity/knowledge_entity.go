package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TopicKnowledge holds the named free-text sections captured for a topic.
// A nil field means nothing has been captured for that section yet.
type TopicKnowledge struct {
	Definition           *string `json:"definition"`
	Purpose              *string `json:"purpose"`
	InputsOutputs        *string `json:"inputs_outputs"`
	Dependencies         *string `json:"dependencies"`
	FailureCases         *string `json:"failure_cases"`
	EdgeCases            *string `json:"edge_cases"`
	OperationalSteps     *string `json:"operational_steps"`
	MonitoringDeployment *string `json:"monitoring_deployment"`
}

type KnowledgeField struct {
	Key   string
	Label string
	Value *string
}

func (k *TopicKnowledge) Fields() []KnowledgeField {
	return []KnowledgeField{
		{Key: "definition", Label: "definition", Value: k.Definition},
		{Key: "purpose", Label: "purpose", Value: k.Purpose},
		{Key: "inputs_outputs", Label: "inputs / outputs", Value: k.InputsOutputs},
		{Key: "dependencies", Label: "dependencies", Value: k.Dependencies},
		{Key: "failure_cases", Label: "failure cases", Value: k.FailureCases},
		{Key: "edge_cases", Label: "edge cases", Value: k.EdgeCases},
		{Key: "operational_steps", Label: "operational steps", Value: k.OperationalSteps},
		{Key: "monitoring_deployment", Label: "monitoring / deployment", Value: k.MonitoringDeployment},
	}
}

func (k *TopicKnowledge) field(key string) **string {
	switch key {
	case "definition":
		return &k.Definition
	case "purpose":
		return &k.Purpose
	case "inputs_outputs":
		return &k.InputsOutputs
	case "dependencies":
		return &k.Dependencies
	case "failure_cases":
		return &k.FailureCases
	case "edge_cases":
		return &k.EdgeCases
	case "operational_steps":
		return &k.OperationalSteps
	case "monitoring_deployment":
		return &k.MonitoringDeployment
	}
	return nil
}

func (k TopicKnowledge) Clone() TopicKnowledge {
	c := TopicKnowledge{}
	for _, f := range k.Fields() {
		if f.Value != nil {
			v := *f.Value
			*c.field(f.Key) = &v
		}
	}
	return c
}

func (k *TopicKnowledge) IsEmpty() bool {
	for _, f := range k.Fields() {
		if f.Value != nil && strings.TrimSpace(*f.Value) != "" {
			return false
		}
	}
	return true
}

// JSON renders the knowledge as indented JSON; this is also the summary text
// that gets embedded when a topic completes.
func (k *TopicKnowledge) JSON() string {
	b, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// KnowledgeFromMap builds a TopicKnowledge from a loosely typed extraction
// result. Keys may use either the snake_case names or the human labels
// ("inputs / outputs"); every value goes through NormalizeField.
func KnowledgeFromMap(raw map[string]interface{}) TopicKnowledge {
	k := TopicKnowledge{}
	for key, value := range raw {
		dst := k.field(CanonicalKnowledgeKey(key))
		if dst == nil {
			continue
		}
		*dst = NormalizeField(value)
	}
	return k
}

func CanonicalKnowledgeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " / ", "_")
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

// NormalizeField coerces one extracted value to an optional string. Lists are
// rendered as "- item" lines joined by newlines. A string is returned as is,
// so normalizing an already normalized value changes nothing.
func NormalizeField(value interface{}) *string {
	var out string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		out = v
	case *string:
		if v == nil {
			return nil
		}
		out = *v
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		out = bulletList(items)
	case []interface{}:
		out = bulletList(v)
	default:
		out = scalarText(v)
	}
	return &out
}

func bulletList(items []interface{}) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+scalarText(item))
	}
	return strings.Join(lines, "\n")
}

func scalarText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case float64, bool, int:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
