package agent

import (
	"fmt"
	"strings"
)

// NoRelevantInformation is the agent reply when the pipeline marks its answer invalid.
const NoRelevantInformation = "No relevant information found."

const moderationPrompt = `Analyze the following query and determine if it contains inappropriate, offensive, or harmful language:
"%s"

If the language is inappropriate, generate a polite response asking the user to rephrase their query.
If the language is severely inappropriate, respond with a warning and do not engage further.`

func renderModeration(query string) string {
	return fmt.Sprintf(moderationPrompt, query)
}

func renderRouting(query string) string {
	var b strings.Builder
	b.WriteString("You route student queries to exactly one tool.\n\nTools:\n")
	for _, c := range capabilities {
		fmt.Fprintf(&b, "- %s: %s\n", c.name, c.description)
	}
	b.WriteString("\nReply with the tool name only.\n")
	fmt.Fprintf(&b, "Query: %q\nTool: ", query)
	return b.String()
}
