package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"kt-assistant-be/internal/entity"
)

const (
	FallbackQuestion = "I'm having trouble thinking of the next question. Could you tell me more about the current topic?"
	FallbackSummary  = "Error: Could not generate the final summary due to model unavailability. Please try again in 5 minutes."
	FallbackAnswer   = "I couldn't search the knowledge base right now. Please try again in a moment."

	AnalyzerSystemPrompt = "You are a specialized system analyzer. Always return JSON mapping topic IDs to their updates."
)

// InterrogationPrompt is the interviewer persona for one target topic.
func InterrogationPrompt(topic *entity.Topic, threshold int) string {
	var p strings.Builder

	p.WriteString("You are a Senior Technical Architect conducting a Knowledge Transfer (KT) session.\n")
	p.WriteString("Your goal is to fully understand the system being explained by the user.\n\n")

	fmt.Fprintf(&p, "Currently focusing on Topic: %s\n", topic.Name)
	if topic.Description != "" {
		fmt.Fprintf(&p, "Topic description: %s\n", topic.Description)
	}
	fmt.Fprintf(&p, "Current Knowledge for this topic: %s\n", compactKnowledge(&topic.Knowledge))
	fmt.Fprintf(&p, "Missing Sections: %s\n\n", strings.Join(topic.MissingSections, ", "))

	p.WriteString("Guidelines:\n")
	p.WriteString("1. Be professional, inquisitive, and structured.\n")
	p.WriteString("2. Ask targeted follow-up questions to fill in the 'Missing Sections'.\n")
	fmt.Fprintf(&p, "3. Do NOT move to the next topic or generate a summary until you have at least %d%% confidence in the current topic.\n", threshold)
	p.WriteString("4. Detect vague explanations and ask for specific details (e.g., specific error codes, exact CLI commands, or monitoring metrics).\n")
	p.WriteString("5. Never assume missing details; always clarify.\n")
	p.WriteString("6. If the user provided a lot of info, acknowledge it briefly and then ask the most critical missing detail.\n")
	p.WriteString("7. If this is the start, ask for a high-level overview first.\n")

	return p.String()
}

type topicSnapshot struct {
	Name             string                `json:"name"`
	CurrentKnowledge entity.TopicKnowledge `json:"current_knowledge"`
}

// ExtractionPrompt asks for knowledge updates across every topic of the
// session at once, keyed by topic id.
func ExtractionPrompt(topics []*entity.Topic, userMessage string) string {
	snapshot := make(map[string]topicSnapshot, len(topics))
	for _, t := range topics {
		snapshot[t.Id] = topicSnapshot{Name: t.Name, CurrentKnowledge: t.Knowledge}
	}
	topicsJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		topicsJSON = []byte("{}")
	}

	var p strings.Builder
	p.WriteString("Analyze the following user input in the context of a KT session.\n")
	p.WriteString("The user might be providing information for multiple topics at once.\n\n")
	fmt.Fprintf(&p, "User input: \"%s\"\n\n", userMessage)
	p.WriteString("Topics and their current knowledge:\n")
	p.Write(topicsJSON)
	p.WriteString("\n\n")

	p.WriteString("Task:\n")
	p.WriteString("1. For each topic, extract any new information provided in the user input.\n")
	p.WriteString("2. Update the knowledge state for each topic.\n")
	p.WriteString("3. Rate the confidence score (0-100) for each topic based on total knowledge gathered.\n")
	p.WriteString("4. Identify which sections are still missing or vague for each topic.\n\n")

	p.WriteString("Knowledge fields: ")
	var keys []string
	for _, f := range (&entity.TopicKnowledge{}).Fields() {
		keys = append(keys, f.Key)
	}
	p.WriteString(strings.Join(keys, ", "))
	p.WriteString(".\n\n")

	p.WriteString(`Return the result as a JSON object where keys are Topic IDs (e.g., "t1", "t2"):
{
    "t1": {
        "knowledge": { ... },
        "confidence_score": integer,
        "missing_sections": ["list"]
    },
    ...
}`)
	return p.String()
}

// SummarySystemPrompt describes the final KT document.
func SummarySystemPrompt() string {
	var p strings.Builder
	p.WriteString("You are a Senior Technical Architect. Generate a production-ready, structured KT document.\n")
	p.WriteString("Use the provided session data which includes multiple topics with detailed knowledge.\n\n")

	p.WriteString("The document must include:\n")
	p.WriteString("- Executive Overview\n")
	p.WriteString("- System Architecture\n")
	p.WriteString("- Module Breakdown (for each topic)\n")
	p.WriteString("- Data Flow (Inputs/Outputs) - **MANDATORY: Use Markdown tables for this section**\n")
	p.WriteString("- Dependencies\n")
	p.WriteString("- Failure & Recovery Strategy (from failure cases/edge cases)\n")
	p.WriteString("- Monitoring & Operations\n")
	p.WriteString("- Deployment\n")
	p.WriteString("- Risks\n")
	p.WriteString("- Operational Checklist - **MANDATORY: Use a Markdown table or highly structured task list**\n\n")

	p.WriteString("Formatting Guidelines:\n")
	p.WriteString("1. Use clean GitHub Flavored Markdown (GFM).\n")
	p.WriteString("2. Use Markdown headers: # for the title, ## for major sections, and ### for subsections.\n")
	p.WriteString("3. DO NOT use HTML tags (like <h1>, <div>, <br>). ONLY use Markdown syntax.\n")
	p.WriteString("4. Use bold text for emphasis.\n")
	p.WriteString("5. Ensure all tables have proper headers and look professional.\n")
	p.WriteString("6. Maintain a professional, technical tone throughout.\n")
	p.WriteString("\nIMPORTANT: Do not include the Session ID or any internal technical identifiers in the final report.")
	return p.String()
}

// SummaryUserPrompt lists each topic by name only; ids stay out of the prompt.
func SummaryUserPrompt(topics []*entity.Topic) string {
	var p strings.Builder
	p.WriteString("Generate the final summary for this session data:\n")
	for _, t := range topics {
		fmt.Fprintf(&p, "\n--- Topic: %s ---\n%s\n", t.Name, compactKnowledge(&t.Knowledge))
	}
	return p.String()
}

// QASystemPrompt grounds a knowledge-base answer in retrieved topic summaries.
func QASystemPrompt(hits []*entity.TopicVector) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, fmt.Sprintf("Topic: %s\nDetails: %s", h.Topic, h.Summary))
	}

	var p strings.Builder
	p.WriteString("You are a technical assistant. Use the following context retrieved from a Knowledge Transfer session ")
	p.WriteString("to answer the user's question accurately. If the context doesn't contain the answer, say you don't know.\n\n")
	p.WriteString("Context:\n")
	p.WriteString(strings.Join(blocks, "\n\n"))
	return p.String()
}

// SummaryText is what gets embedded and stored for a completed topic.
func SummaryText(knowledge *entity.TopicKnowledge) string {
	return knowledge.JSON()
}

// IndexText is the string embedded for a completed topic.
func IndexText(topicName, summary string) string {
	return fmt.Sprintf("Topic: %s\nContent: %s", topicName, summary)
}

func compactKnowledge(k *entity.TopicKnowledge) string {
	labelled := make(map[string]*string)
	for _, f := range k.Fields() {
		labelled[f.Label] = f.Value
	}
	b, err := json.Marshal(labelled)
	if err != nil {
		return "{}"
	}
	return string(b)
}
