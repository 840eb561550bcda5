package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// fakeSession is a gollem Session returning canned texts
type fakeSession struct {
	generateFn func(ctx context.Context, input []gollem.Input) (*gollem.Response, error)
}

func (s *fakeSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, input)
	}
	return &gollem.Response{Texts: []string{"It sounds like a good week."}}, nil
}

func (s *fakeSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *fakeSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.Generate(ctx, input)
}

func (s *fakeSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return s.Stream(ctx, input)
}

func (s *fakeSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *fakeSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *fakeSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// fakeLLM is a gollem LLMClient handing out fakeSession
type fakeLLM struct {
	session      *fakeSession
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	sessions     int
}

func (c *fakeLLM) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.sessions++
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	if c.session != nil {
		return c.session, nil
	}
	return &fakeSession{}, nil
}

func (c *fakeLLM) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with the journal context", func(t *testing.T) {
		var received []gollem.Input
		llm := &fakeLLM{session: &fakeSession{
			generateFn: func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
				received = input
				return &gollem.Response{Texts: []string{"  You spent time with Julia.", "It made you happy.  "}}, nil
			},
		}}

		f := newFixture(
			[]*model.Note{sisterNote, meetingNote},
			usecase.WithLLMClient(llm),
		)
		_, err := f.uc.Index.Update(ctx)
		gt.NoError(t, err).Required()

		answer, err := f.uc.Ask.Ask(ctx, "how do I feel about family", "")
		gt.NoError(t, err).Required()
		gt.Value(t, answer.Text).Equal("You spent time with Julia.\nIt made you happy.")
		gt.String(t, answer.Context).Contains("1. [1 week ago] " + sisterNote.Text)
		gt.Array(t, received).Length(1)
		gt.Value(t, received[0]).Equal(gollem.Input(gollem.Text("how do I feel about family")))
	})

	t.Run("answers without context on an empty index", func(t *testing.T) {
		llm := &fakeLLM{}
		f := newFixture(nil, usecase.WithLLMClient(llm))

		answer, err := f.uc.Ask.Ask(ctx, "hello there", "")
		gt.NoError(t, err).Required()
		gt.Value(t, answer.Context).Equal("")
		gt.Value(t, answer.Text).Equal("It sounds like a good week.")
	})

	t.Run("no completion provider", func(t *testing.T) {
		f := newFixture(nil)
		_, err := f.uc.Ask.Ask(ctx, "hello", "")
		gt.Error(t, err).Is(usecase.ErrNoLLMClient)
	})

	t.Run("blank message", func(t *testing.T) {
		llm := &fakeLLM{}
		f := newFixture(nil, usecase.WithLLMClient(llm))
		_, err := f.uc.Ask.Ask(ctx, "  \n ", "")
		gt.Error(t, err).Is(usecase.ErrEmptyQuery)
		gt.Number(t, llm.sessions).Equal(0)
	})

	t.Run("session failure", func(t *testing.T) {
		errSession := errors.New("quota exceeded")
		llm := &fakeLLM{newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return nil, errSession
		}}
		f := newFixture(nil, usecase.WithLLMClient(llm))
		_, err := f.uc.Ask.Ask(ctx, "hello", "")
		gt.Error(t, err).Is(errSession)
	})

	t.Run("generation failure", func(t *testing.T) {
		errGenerate := errors.New("model overloaded")
		llm := &fakeLLM{session: &fakeSession{
			generateFn: func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
				return nil, errGenerate
			},
		}}
		f := newFixture(nil, usecase.WithLLMClient(llm))
		_, err := f.uc.Ask.Ask(ctx, "hello", "")
		gt.Error(t, err).Is(errGenerate)
	})
}

func TestAskSystemPrompt(t *testing.T) {
	f := newFixture(nil)

	t.Run("with journal passages", func(t *testing.T) {
		prompt, err := usecase.BuildAskSystemPrompt(f.uc.Ask, "1. [yesterday] Stressful meeting")
		gt.NoError(t, err).Required()
		gt.String(t, prompt).Contains("Today is Thursday, January 11, 2024.")
		gt.String(t, prompt).Contains("<journal>\n1. [yesterday] Stressful meeting\n</journal>")
	})

	t.Run("without journal passages", func(t *testing.T) {
		prompt, err := usecase.BuildAskSystemPrompt(f.uc.Ask, "")
		gt.NoError(t, err).Required()
		gt.String(t, prompt).Contains("No journal passages matched")
		gt.Bool(t, strings.Contains(prompt, "<journal>")).False()
	})
}
