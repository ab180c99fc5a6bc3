package llm

import (
	"fmt"
	"strings"
)

// buildDialoguePrompt renders the generation context into a single prompt.
// The model answers as the listener. The JSON envelope requested at the end
// is what parseDialogueResponse expects; a model that ignores it and answers
// in plain prose still works, it just reveals no facts.
func buildDialoguePrompt(dc DialogueContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a character in a mystery game.\n", dc.ListenerName)
	fmt.Fprintf(&b, "Your description: %s\n", dc.ListenerDescription)
	if len(dc.ListenerGoals) > 0 {
		fmt.Fprintf(&b, "Your goals: %s\n", strings.Join(dc.ListenerGoals, ", "))
	}
	if dc.ListenerKnowledge != "" {
		fmt.Fprintf(&b, "What you know: %s\n", dc.ListenerKnowledge)
	}
	if len(dc.ListenerMemory) > 0 {
		fmt.Fprintf(&b, "\nYour recent memories:\n%s\n", strings.Join(dc.ListenerMemory, "\n"))
	}

	fmt.Fprintf(&b, "\nYou are talking to %s. %s\n", dc.SpeakerName, dc.SpeakerDescription)
	if dc.SpeakerKnowledge != "" {
		fmt.Fprintf(&b, "They appear to know: %s\n", dc.SpeakerKnowledge)
	}

	if len(dc.SessionHistory) > 0 {
		fmt.Fprintf(&b, "\nThe conversation so far:\n%s\n", strings.Join(dc.SessionHistory, "\n"))
	}

	if len(dc.ScenarioFacts) > 0 {
		fmt.Fprintf(&b, "\nFacts that exist in this scenario (id: content):\n%s\n", strings.Join(dc.ScenarioFacts, "\n"))
	}

	fmt.Fprintf(&b, "\n%s says: %q\n", dc.SpeakerName, dc.Topic)
	b.WriteString(`
Respond in character, concisely. Do not reveal information you do not know.
Answer with a single JSON object:
{"text": "<your reply>", "revealed_fact_ids": ["<id of any scenario fact your reply gives away>"], "emotional_impact": {"<emotion>": <delta>}}
`)
	return b.String()
}

// buildSummarizePrompt renders a summarization request for a block of
// narrative-memory text.
func buildSummarizePrompt(text string) string {
	return fmt.Sprintf(
		"Summarize the following first-person diary entries into one short paragraph, keeping names, places and discovered facts:\n\n%s\n\nSummary:",
		text,
	)
}
