// Package rag answers questions about the indexed document by running one
// request through contextualization, retrieval, prompt assembly and generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/memory"
	"pdf-rag/internal/models"
)

// State is the position of a request in the answer pipeline.
type State int

const (
	StateReceived State = iota
	StateQuestionContextualized
	StateRetrieved
	StatePrompted
	StateGenerated
	StateResponded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateQuestionContextualized:
		return "QUESTION_CONTEXTUALIZED"
	case StateRetrieved:
		return "RETRIEVED"
	case StatePrompted:
		return "PROMPTED"
	case StateGenerated:
		return "GENERATED"
	case StateResponded:
		return "RESPONDED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options tunes a single answer.
type Options struct {
	TopK            int
	SourceTextLimit int
	// HistoryWindow caps how many turns reach the prompt. 0 means all of them.
	HistoryWindow int
	Timeout       time.Duration
}

// Outcome is what Answer produced. Response is always safe to return to a client.
type Outcome struct {
	Response           models.ChatResponse
	State              State
	StandaloneQuestion string
	Passages           []models.Passage
	// RetrievalErr is set when retrieval failed and the answer was generated without context.
	RetrievalErr error
	Err          error
}

// Failed reports whether the request ended in StateFailed.
func (o Outcome) Failed() bool { return o.State == StateFailed }

type Orchestrator struct {
	contextualizer Contextualizer
	retriever      Retriever
	assembler      PromptAssembler
	generator      Generator
	opts           Options
}

func NewOrchestrator(c Contextualizer, r Retriever, a PromptAssembler, g Generator, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Orchestrator{
		contextualizer: c,
		retriever:      r,
		assembler:      a,
		generator:      g,
		opts:           opts,
	}
}

// Answer runs the pipeline for question inside sess. The session is locked
// for the whole sequence and its memory only grows when an answer was produced.
func (o *Orchestrator) Answer(ctx context.Context, sess *memory.Session, question string) Outcome {
	sess.Lock()
	defer sess.Unlock()

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	logger := log.With().Str("session", sess.ID).Logger()
	out := Outcome{State: StateReceived}
	step := func(s State) {
		out.State = s
		logger.Debug().Str("state", s.String()).Msg("RAG state")
	}
	fail := func(err error) Outcome {
		logger.Warn().Err(err).Str("after", out.State.String()).Msg("RAG request failed")
		out.State = StateFailed
		out.Err = err
		out.Response = models.ChatResponse{Answer: models.FallbackAnswer, Sources: []models.Source{}}
		return out
	}
	step(StateReceived)

	question = strings.TrimSpace(question)
	if question == "" {
		return fail(errors.New("empty question"))
	}

	history := sess.Memory.Window(o.opts.HistoryWindow)

	standalone := question
	if len(history) > 0 {
		var err error
		standalone, err = o.contextualizer.Contextualize(ctx, question, history)
		if err != nil {
			return fail(err)
		}
	}
	out.StandaloneQuestion = standalone
	step(StateQuestionContextualized)

	passages, err := o.retriever.Retrieve(ctx, standalone, o.opts.TopK)
	if err != nil {
		logger.Warn().Err(err).Msg("Retrieval failed, answering without context")
		out.RetrievalErr = err
		passages = nil
	}
	out.Passages = passages
	step(StateRetrieved)

	prompt := o.assembler.Assemble(question, passages, history)
	step(StatePrompted)

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return fail(err)
	}
	step(StateGenerated)

	sess.Memory.Append(question, answer)
	out.Response = models.ChatResponse{
		Answer:  answer,
		Sources: Sources(passages, o.opts.SourceTextLimit),
	}
	sess.SetLastSources(out.Response.Sources)
	step(StateResponded)
	return out
}

// Ask is Answer for callers that only need the response.
func (o *Orchestrator) Ask(ctx context.Context, sess *memory.Session, question string) models.ChatResponse {
	return o.Answer(ctx, sess, question).Response
}

// Sources maps passages to citations in the same order, truncating text to limit runes.
func Sources(passages []models.Passage, limit int) []models.Source {
	sources := make([]models.Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, models.Source{
			Page: p.SourcePage,
			Text: helper.Truncate(p.Text, limit),
		})
	}
	return sources
}
