package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"kt-assistant-be/internal/entity"
)

// TopicUpdate is the extraction result for one topic.
type TopicUpdate struct {
	Knowledge       entity.TopicKnowledge
	ConfidenceScore int
	MissingSections []string
}

type rawTopicUpdate struct {
	Knowledge       map[string]interface{} `json:"knowledge"`
	ConfidenceScore interface{}            `json:"confidence_score"`
	MissingSections interface{}            `json:"missing_sections"`
}

// ParseTopicUpdates decodes the analyzer's JSON reply. Entries for ids not in
// knownIds are dropped; entries that are not objects are skipped. Knowledge
// values are normalized (lists become "- item" lines) and scores clamped.
func ParseTopicUpdates(raw string, knownIds map[string]bool) (map[string]TopicUpdate, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &entries); err != nil {
		return nil, fmt.Errorf("decode topic updates: %w", err)
	}

	updates := make(map[string]TopicUpdate, len(entries))
	for id, body := range entries {
		if !knownIds[id] {
			continue
		}
		var r rawTopicUpdate
		if err := json.Unmarshal(body, &r); err != nil {
			continue
		}
		updates[id] = TopicUpdate{
			Knowledge:       entity.KnowledgeFromMap(r.Knowledge),
			ConfidenceScore: parseScore(r.ConfidenceScore),
			MissingSections: parseSections(r.MissingSections),
		}
	}
	return updates, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseScore(v interface{}) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return entity.ClampScore(int(math.Max(math.Min(f, 1000), -1000)))
}

func parseSections(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}
