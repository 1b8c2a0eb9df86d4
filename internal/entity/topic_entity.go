package entity

type Topic struct {
	Id              string
	Name            string
	Description     string
	ConfidenceScore int
	IsComplete      bool
	Knowledge       TopicKnowledge
	MissingSections []string
}

// ApplyScore records a new confidence score. It reports true only on the
// first transition to complete; a complete topic stays complete even when a
// later score drops below threshold.
func (t *Topic) ApplyScore(score, threshold int) bool {
	t.ConfidenceScore = ClampScore(score)
	if t.IsComplete || t.ConfidenceScore < threshold {
		return false
	}
	t.IsComplete = true
	return true
}

func (t *Topic) Clone() *Topic {
	if t == nil {
		return nil
	}
	c := *t
	c.Knowledge = t.Knowledge.Clone()
	if t.MissingSections != nil {
		c.MissingSections = append([]string{}, t.MissingSections...)
	}
	return &c
}

func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
