package synthesis

import "strings"

// QATemplate is the text_qa prompt: answer from the given context only.
const QATemplate = "Context information is below.\n" +
	"---------------------\n" +
	"{context_str}\n" +
	"---------------------\n" +
	"Given the context information and not prior knowledge, " +
	"answer the query.\n" +
	"Query: {query_str}\n" +
	"Answer: "

// SystemPrompt is installed on the completion backend used for synthesis.
const SystemPrompt = `You are an expert educational system trusted for providing accurate explanations based on NCERT concepts.
Your task is to explain topics using only the provided context. If the context does not contain the answer, clearly state that the information is not available.
Your explanation should be presented as a well-structured, informative article aimed at helping students and educators understand the subject matter deeply.

Your response should focus on:
- A brief introduction to the concept, based on the NCERT material.
- A detailed explanation of the key principles or examples, using relevant information from the context.
- Any key observations, facts, or results that help explain the topic further.
- A concluding summary or key takeaways that reinforce the main points.

Ensure that the response is:
- Clear and precise, without restating the query.
- Focused on explaining the concept without introducing unrelated information.
- Organized for easy understanding by students and educators.

If the answer is not found in the provided context, state: "The context does not provide the necessary information."`

const (
	contextPlaceholder = "{context_str}"
	queryPlaceholder   = "{query_str}"

	// chunkSeparator joins packed chunk contents inside one prompt.
	chunkSeparator = "\n\n"
	// responseSeparator joins accumulated partial answers.
	responseSeparator = "\n---------------------\n"
)

func renderQA(contextStr, query string) string {
	return strings.NewReplacer(contextPlaceholder, contextStr, queryPlaceholder, query).Replace(QATemplate)
}

// templateOverhead is the prompt text outside the context slot.
func templateOverhead(query string) string {
	return renderQA("", query)
}
