package models

const (
	ContextSeparator = "\n\n"
	ThinkTag         = `(?s)<think>.*?</think>`

	// DeclinePhrase is what the assistant says when the context does not cover the question.
	DeclinePhrase = "this is not in the provided material"

	FallbackAnswer = "Sorry, no answer could be produced right now."
)

var (
	SystemPromptTemplate = `You are a technical assistant and a retrieval-augmented chatbot for a single document.
Answer plainly and accurately, using only the provided context.
If the context is not related to the question, do not invent sources or citations.
If the context is insufficient or you are unsure, say "` + DeclinePhrase + `".`

	// HumanPromptTemplate takes the question, the joined context and the response language.
	HumanPromptTemplate = `Question: %s

Context:
%s

Answer in %s and, where possible, explain item by item.
`

	// CondensePromptTemplate takes the chat history and the follow-up question.
	CondensePromptTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`
)
