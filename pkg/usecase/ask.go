package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

//go:embed prompt/ask_system.md
var askSystemPromptTmpl string

var askSystemPrompt = template.Must(template.New("ask_system").Parse(askSystemPromptTmpl))

// askPromptData holds all data for the ask system prompt template
type askPromptData struct {
	Today   string
	Context string
}

// Answer is a completion grounded on journal context
type Answer struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// AskUseCase answers a message with the completion provider, given the journal context
// assembled for it.
type AskUseCase struct {
	context   *ContextUseCase
	llmClient gollem.LLMClient
	clock     func() time.Time
}

func NewAskUseCase(ctxUC *ContextUseCase, llmClient gollem.LLMClient, clock func() time.Time) *AskUseCase {
	return &AskUseCase{
		context:   ctxUC,
		llmClient: llmClient,
		clock:     clock,
	}
}

func (uc *AskUseCase) buildSystemPrompt(journalContext string) (string, error) {
	var buf bytes.Buffer
	data := askPromptData{
		Today:   uc.clock().Format("Monday, January 2, 2006"),
		Context: journalContext,
	}
	if err := askSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute ask system prompt template")
	}
	return buf.String(), nil
}

// Ask answers text. targetLine selects the line used as search query, as in BuildContext.
func (uc *AskUseCase) Ask(ctx context.Context, text, targetLine string) (*Answer, error) {
	if uc.llmClient == nil {
		return nil, goerr.Wrap(ErrNoLLMClient, "cannot answer")
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "nothing to answer")
	}

	journalContext := uc.context.BuildContext(ctx, text, targetLine)
	logging.From(ctx).Debug("built journal context", slog.Int("length", len(journalContext)))

	prompt, err := uc.buildSystemPrompt(journalContext)
	if err != nil {
		return nil, err
	}

	session, err := uc.llmClient.NewSession(ctx, gollem.WithSessionSystemPrompt(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(text)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}

	return &Answer{
		Text:    strings.TrimSpace(strings.Join(resp.Texts, "\n")),
		Context: journalContext,
	}, nil
}
