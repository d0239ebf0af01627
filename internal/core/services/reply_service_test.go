package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

// scriptedCompletion scripts completion responses per token budget, which
// distinguishes the classifier (100), direct (150) and contextual (200)
// stages without inspecting prompts.
type scriptedCompletion struct {
	byTokens  map[int]string
	errTokens map[int]error
	calls     []domain.CompletionRequest
}

func (s *scriptedCompletion) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	if err, ok := s.errTokens[req.MaxTokens]; ok {
		return "", err
	}
	if out, ok := s.byTokens[req.MaxTokens]; ok {
		return out, nil
	}
	return "", ports.NewProviderError("scripted", ports.ErrCodeMalformedResponse, "no script for request", nil)
}

func (s *scriptedCompletion) GetModelInfo(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"model": "scripted"}, nil
}

type stubSearch struct {
	results []ports.SearchResult
	err     error
	queries []string
}

func (s *stubSearch) Search(_ context.Context, query string) ([]ports.SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubSearch) Name() string { return "stub" }

type stubJournal struct {
	entries []domain.JournalEntry
}

func (j *stubJournal) Record(_ context.Context, e domain.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *stubJournal) Recent(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	return j.entries, nil
}

func (j *stubJournal) Count(context.Context) (int, error) { return len(j.entries), nil }

func (j *stubJournal) Close() error { return nil }

func newTestService(completion ports.CompletionPort, search ports.WebSearchPort, journal ports.JournalPort) *ReplyService {
	return NewReplyService(completion, search, journal, config.DefaultConfig(), logger.New(slog.LevelError, io.Discard))
}

func TestComposeReplyGreeting(t *testing.T) {
	completion := &scriptedCompletion{}
	search := &stubSearch{}
	svc := newTestService(completion, search, nil)

	for _, message := range []string{"hello there", "Hi!", "HELLO", "this matches too"} {
		got := svc.ComposeReply(context.Background(), "m1", message)
		assert.Equal(t, greetingReply, got, "message %q", message)
	}

	assert.Empty(t, completion.calls)
	assert.Empty(t, search.queries)
}

func TestComposeReplyHelp(t *testing.T) {
	completion := &scriptedCompletion{}
	search := &stubSearch{}
	svc := newTestService(completion, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "can you help me?")

	assert.Equal(t, helpReply, got)
	assert.Empty(t, completion.calls)
	assert.Empty(t, search.queries)
}

func TestComposeReplyTime(t *testing.T) {
	svc := newTestService(&scriptedCompletion{}, &stubSearch{}, nil)

	got := svc.ComposeReply(context.Background(), "m1", "what TIME is it?")

	require.True(t, strings.HasPrefix(got, "Current time: "))
	_, err := time.Parse("2006-01-02 15:04:05", strings.TrimPrefix(got, "Current time: "))
	assert.NoError(t, err)
}

func TestComposeReplyCommandPrecedence(t *testing.T) {
	svc := newTestService(&scriptedCompletion{}, &stubSearch{}, nil)

	// Greeting wins over help when both substrings are present.
	got := svc.ComposeReply(context.Background(), "m1", "hi, can you help?")

	assert.Equal(t, greetingReply, got)
}

func TestComposeReplySearchCommand(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		contextualMaxTokens: "Try Ichiran in Shibuya.",
	}}
	search := &stubSearch{results: []ports.SearchResult{
		{Title: "Best ramen", Snippet: "Ichiran tops the list"},
		{Title: "Ramen guide", Snippet: "Where locals eat"},
	}}
	journal := &stubJournal{}
	svc := newTestService(completion, search, journal)

	got := svc.ComposeReply(context.Background(), "m1", "Search Tokyo ramen")

	assert.Equal(t, "Try Ichiran in Shibuya.", got)
	assert.Equal(t, []string{"Tokyo ramen"}, search.queries)

	require.Len(t, completion.calls, 1)
	call := completion.calls[0]
	assert.Equal(t, contextualMaxTokens, call.MaxTokens)
	assert.Contains(t, call.UserContent, "User question: Search Tokyo ramen")
	assert.Contains(t, call.UserContent, "🔍 Search results for 'Tokyo ramen':")

	require.Len(t, journal.entries, 1)
	assert.Equal(t, domain.RouteSearchCommand, journal.entries[0].Route)
	assert.Equal(t, "Tokyo ramen", journal.entries[0].Query)
	assert.Equal(t, 2, journal.entries[0].ResultCount)
}

func TestSearchCommandNoResults(t *testing.T) {
	svc := newTestService(&scriptedCompletion{}, &stubSearch{}, nil)

	got := svc.ComposeReply(context.Background(), "m1", "search unfindable nonsense")

	assert.Equal(t, "I couldn't find any results for 'unfindable nonsense'. Try a different search term!", got)
}

func TestSearchCommandFailure(t *testing.T) {
	search := &stubSearch{err: ports.NewProviderError("stub", ports.ErrCodeTransport, "request failed", nil)}
	svc := newTestService(&scriptedCompletion{}, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "search broken backend")

	assert.Equal(t, "Sorry, I encountered an error while searching for 'broken backend'. Please try again later.", got)
}

func TestSearchCommandWithoutCompletionReturnsRendering(t *testing.T) {
	search := &stubSearch{results: []ports.SearchResult{{Title: "x", Snippet: "y"}}}
	svc := newTestService(nil, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "search raw mode")

	assert.True(t, strings.HasPrefix(got, "🔍 Search results for 'raw mode':"))
}

func TestClassifiedNoSearchAnswersDirectly(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		classifierMaxTokens: "<search>NO</search> General knowledge question.",
		directMaxTokens:     "Go is a programming language.",
	}}
	search := &stubSearch{}
	svc := newTestService(completion, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "what is Golang?")

	assert.Equal(t, "Go is a programming language.", got)
	assert.Empty(t, search.queries)

	require.Len(t, completion.calls, 2)
	assert.Equal(t, directPrompt, completion.calls[1].SystemPrompt)
	assert.Equal(t, "what is Golang?", completion.calls[1].UserContent)
}

func TestClassifiedYesUsesSuggestedQuery(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		classifierMaxTokens: `<search>YES</search> Need current weather data. Search: "weather today"`,
		contextualMaxTokens: "Sunny and 25 degrees.",
	}}
	search := &stubSearch{results: []ports.SearchResult{{Title: "Weather", Snippet: "Sunny"}}}
	journal := &stubJournal{}
	svc := newTestService(completion, search, journal)

	got := svc.ComposeReply(context.Background(), "m1", "weather in my town?")

	assert.Equal(t, "Sunny and 25 degrees.", got)
	assert.Equal(t, []string{"weather today"}, search.queries)

	require.Len(t, journal.entries, 1)
	assert.Equal(t, domain.RouteSearchGrounded, journal.entries[0].Route)
	assert.Equal(t, "weather today", journal.entries[0].Query)
	assert.Equal(t, 1, journal.entries[0].ResultCount)
}

func TestClassifierFailureFallsBackToDirect(t *testing.T) {
	completion := &scriptedCompletion{
		byTokens:  map[int]string{directMaxTokens: "direct answer"},
		errTokens: map[int]error{classifierMaxTokens: ports.NewProviderError("scripted", ports.ErrCodeTransport, "request failed", nil)},
	}
	search := &stubSearch{}
	svc := newTestService(completion, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "explain quantum computing")

	assert.Equal(t, "direct answer", got)
	assert.Empty(t, search.queries)
}

func TestClassifiedSearchFailureFallsBackToDirect(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		classifierMaxTokens: "<search>YES</search> Search: bitcoin price",
		directMaxTokens:     "around せん dollars",
	}}
	search := &stubSearch{err: ports.NewProviderError("stub", ports.ErrCodeTransport, "request failed", nil)}
	svc := newTestService(completion, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "bitcoin cost?")

	assert.Equal(t, "around せん dollars", got)
	assert.NotContains(t, got, "Sorry, I encountered an error while searching")
}

func TestClassifiedSearchEmptyFallsBackToDirect(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		classifierMaxTokens: "<search>YES</search> Search: obscure fact",
		directMaxTokens:     "best guess answer",
	}}
	svc := newTestService(completion, &stubSearch{}, nil)

	got := svc.ComposeReply(context.Background(), "m1", "an obscure fact?")

	assert.Equal(t, "best guess answer", got)
}

func TestContextualFailureReturnsRendering(t *testing.T) {
	completion := &scriptedCompletion{
		byTokens:  map[int]string{classifierMaxTokens: "<search>YES</search> Search: news now"},
		errTokens: map[int]error{contextualMaxTokens: ports.NewProviderError("scripted", ports.ErrCodeTransport, "request failed", nil)},
	}
	search := &stubSearch{results: []ports.SearchResult{{Title: "Headline", Snippet: "Body"}}}
	svc := newTestService(completion, search, nil)

	got := svc.ComposeReply(context.Background(), "m1", "latest news?")

	assert.True(t, strings.HasPrefix(got, "🔍 Search results for 'news now':"))
	assert.Contains(t, got, "1. Headline")
}

func TestDirectFailureFallsBackToEcho(t *testing.T) {
	completion := &scriptedCompletion{
		byTokens:  map[int]string{classifierMaxTokens: "<search>NO</search> simple"},
		errTokens: map[int]error{directMaxTokens: ports.NewProviderError("scripted", ports.ErrCodeTransport, "request failed", nil)},
	}
	svc := newTestService(completion, &stubSearch{}, nil)

	got := svc.ComposeReply(context.Background(), "m1", "tell me a joke")

	assert.Equal(t, "I received your message: tell me a joke\nI'm experiencing some technical issues. Please try again later.", got)
}

func TestNoCompletionConfiguredFallsBackToEcho(t *testing.T) {
	journal := &stubJournal{}
	svc := newTestService(nil, &stubSearch{}, journal)

	got := svc.ComposeReply(context.Background(), "m1", "tell me a joke")

	assert.Equal(t, "I received your message: tell me a joke\nI'm experiencing some technical issues. Please try again later.", got)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, domain.RouteFallback, journal.entries[0].Route)
}

func TestComposeReplyBoundsLongAnswers(t *testing.T) {
	completion := &scriptedCompletion{byTokens: map[int]string{
		classifierMaxTokens: "<search>NO</search>",
		directMaxTokens:     strings.Repeat("a", 2500),
	}}
	svc := newTestService(completion, &stubSearch{}, nil)

	got := svc.ComposeReply(context.Background(), "m1", "a very long answer please")

	assert.Len(t, []rune(got), domain.ReplyMaxRunes)
	assert.True(t, strings.HasSuffix(got, "💡 Ask a follow-up for more detail!"))
}

func TestComposeReplyJournalsCommands(t *testing.T) {
	journal := &stubJournal{}
	svc := newTestService(nil, nil, journal)

	svc.ComposeReply(context.Background(), "msg-42", "hello")

	require.Len(t, journal.entries, 1)
	entry := journal.entries[0]
	assert.Equal(t, "msg-42", entry.MessageID)
	assert.Equal(t, domain.RouteGreeting, entry.Route)
	assert.Equal(t, len([]rune(greetingReply)), entry.ReplyChars)
}

func TestGetModelName(t *testing.T) {
	cfg := config.DefaultConfig()
	log := logger.New(slog.LevelError, io.Discard)

	svc := NewReplyService(nil, nil, nil, cfg, log)
	assert.Equal(t, cfg.Completion.OpenRouter.Model, svc.GetModelName())

	cfg.Completion.Provider = "ollama"
	assert.Equal(t, cfg.Completion.Ollama.Model, svc.GetModelName())

	cfg.Completion.Provider = "other"
	assert.Equal(t, "unknown", svc.GetModelName())
}

func TestSearchProviderName(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	assert.Equal(t, "none", svc.SearchProviderName())

	svc = newTestService(nil, &stubSearch{}, nil)
	assert.Equal(t, "stub", svc.SearchProviderName())
}

func TestRecentJournalWithoutJournal(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	entries, err := svc.RecentJournal(context.Background(), 10)

	assert.NoError(t, err)
	assert.Empty(t, entries)
}
