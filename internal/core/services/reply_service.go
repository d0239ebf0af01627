package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

// Fixed command replies, answered before any provider is consulted.
const (
	greetingReply = "Hello! How can I help you today? I can search the web for current information or answer general questions!"
	helpReply     = "I'm a LINE bot with AI and web search capabilities!\n\n• Ask me anything and I'll decide if I need to search for current information\n• Say 'search [query]' for direct web search\n• I can help with current events, weather, news, tech updates, and more!"
	timeFormat    = "2006-01-02 15:04:05"
	fallbackFmt   = "I received your message: %s\nI'm experiencing some technical issues. Please try again later."
)

// ReplyService is the core service that turns one inbound text message into
// exactly one reply. It never fails; every provider failure drops to the next
// fallback tier, down to a fixed apologetic echo.
type ReplyService struct {
	completion ports.CompletionPort
	webSearch  ports.WebSearchPort
	journal    ports.JournalPort
	classifier *Classifier
	logger     logger.Logger
	config     *config.Config
}

// composed is one finished pipeline pass, before the reply bound is applied.
type composed struct {
	reply       string
	route       string
	query       string
	resultCount int
}

// NewReplyService creates a new ReplyService. completion, webSearch and
// journal may each be nil; the pipeline degrades instead of failing.
func NewReplyService(completion ports.CompletionPort, webSearch ports.WebSearchPort, journal ports.JournalPort, config *config.Config, logger logger.Logger) *ReplyService {
	s := &ReplyService{
		completion: completion,
		webSearch:  webSearch,
		journal:    journal,
		logger:     logger,
		config:     config,
	}
	if completion != nil {
		s.classifier = NewClassifier(completion, config.Completion.Temperature, logger)
	}
	return s
}

// ComposeReply produces the reply for one inbound text message. The result is
// never empty and never exceeds the platform reply bound. messageID feeds the
// journal and may be empty.
func (s *ReplyService) ComposeReply(ctx context.Context, messageID, userMessage string) string {
	start := time.Now()

	c := s.compose(ctx, userMessage)
	c.reply = domain.BoundReply(c.reply)

	elapsed := time.Since(start)
	messagesTotal.WithLabelValues(c.route).Inc()
	pipelineDuration.WithLabelValues(c.route).Observe(elapsed.Seconds())

	s.record(ctx, domain.JournalEntry{
		MessageID:   messageID,
		UserText:    userMessage,
		Route:       c.route,
		Query:       c.query,
		ResultCount: c.resultCount,
		ReplyChars:  len([]rune(c.reply)),
		LatencyMS:   elapsed.Milliseconds(),
	})

	return c.reply
}

func (s *ReplyService) compose(ctx context.Context, userMessage string) composed {
	lowered := strings.ToLower(userMessage)

	// Naive substring commands, matching the original relay. "hi" inside
	// "this" or "time" inside "sometimes" firing is preserved behavior.
	switch {
	case strings.Contains(lowered, "hello") || strings.Contains(lowered, "hi"):
		return composed{reply: greetingReply, route: domain.RouteGreeting}
	case strings.Contains(lowered, "help"):
		return composed{reply: helpReply, route: domain.RouteHelp}
	case strings.Contains(lowered, "time"):
		return composed{reply: "Current time: " + time.Now().Format(timeFormat), route: domain.RouteTime}
	}

	if strings.HasPrefix(lowered, "search ") {
		query := strings.TrimSpace(userMessage[7:])
		return s.composeSearchCommand(ctx, userMessage, query)
	}

	if s.completion == nil {
		s.logger.Warn("No completion backend configured, using fallback reply")
		return composed{reply: fmt.Sprintf(fallbackFmt, userMessage), route: domain.RouteFallback}
	}

	decision, err := s.classifier.Classify(ctx, userMessage)
	if err != nil {
		s.logger.Warn("Search need classification failed, falling back to direct answer", "error", err)
		return s.composeDirect(ctx, userMessage)
	}

	if !decision.NeedsSearch {
		return s.composeDirect(ctx, userMessage)
	}

	results, err := s.search(ctx, decision.SuggestedQuery)
	if err != nil {
		s.logger.Warn("Web search failed, falling back to direct answer",
			"error", err, "query", decision.SuggestedQuery)
		return s.composeDirect(ctx, userMessage)
	}
	if len(results) == 0 {
		s.logger.Info("Web search found nothing, falling back to direct answer",
			"query", decision.SuggestedQuery)
		return s.composeDirect(ctx, userMessage)
	}

	c := s.composeContextual(ctx, userMessage, decision.SuggestedQuery, results)
	c.route = domain.RouteSearchGrounded
	c.query = decision.SuggestedQuery
	c.resultCount = len(results)
	return c
}

// composeSearchCommand handles the explicit "search ..." command. Unlike the
// classified path it surfaces search problems to the user instead of falling
// back to a direct answer.
func (s *ReplyService) composeSearchCommand(ctx context.Context, userMessage, query string) composed {
	results, err := s.search(ctx, query)
	if err != nil {
		s.logger.Error("Web search failed", "error", err, "query", query)
		return composed{reply: RenderSearchFailed(query), route: domain.RouteSearchCommand, query: query}
	}
	if len(results) == 0 {
		return composed{reply: RenderNoResults(query), route: domain.RouteSearchCommand, query: query}
	}

	c := s.composeContextual(ctx, userMessage, query, results)
	c.route = domain.RouteSearchCommand
	c.query = query
	c.resultCount = len(results)
	return c
}

// composeContextual generates the final answer grounded in search results. If
// generation is impossible or fails, the raw rendering is the answer; found
// information is never dropped.
func (s *ReplyService) composeContextual(ctx context.Context, userMessage, query string, results []ports.SearchResult) composed {
	rendering := RenderSearchResults(query, results, s.config.WebSearch.MaxResults, s.config.WebSearch.SummaryLength)

	if s.completion == nil {
		return composed{reply: rendering}
	}

	answer, err := s.completion.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: contextualPrompt,
		UserContent:  fmt.Sprintf(contextualUserFormat, userMessage, rendering),
		MaxTokens:    contextualMaxTokens,
		Temperature:  s.config.Completion.Temperature,
	})
	if err != nil {
		s.logger.Warn("Contextual answer generation failed, returning raw search results", "error", err)
		return composed{reply: rendering}
	}

	return composed{reply: answer}
}

func (s *ReplyService) composeDirect(ctx context.Context, userMessage string) composed {
	if s.completion == nil {
		return composed{reply: fmt.Sprintf(fallbackFmt, userMessage), route: domain.RouteFallback}
	}

	answer, err := s.completion.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: directPrompt,
		UserContent:  userMessage,
		MaxTokens:    directMaxTokens,
		Temperature:  s.config.Completion.Temperature,
	})
	if err != nil {
		s.logger.Error("Direct answer generation failed", "error", err)
		return composed{reply: fmt.Sprintf(fallbackFmt, userMessage), route: domain.RouteFallback}
	}

	return composed{reply: answer, route: domain.RouteDirect}
}

// search wraps the search port with the enabled check and outcome metrics.
// A nil error with an empty slice is the no-results outcome.
func (s *ReplyService) search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	if s.webSearch == nil || !s.config.WebSearch.Enabled {
		return nil, ports.NewProviderError("none", ports.ErrCodeUnavailable, "web search not configured", nil)
	}

	results, err := s.webSearch.Search(ctx, query)
	if err != nil {
		searchesTotal.WithLabelValues(s.webSearch.Name(), "error").Inc()
		return nil, err
	}
	if len(results) == 0 {
		searchesTotal.WithLabelValues(s.webSearch.Name(), "empty").Inc()
		return nil, nil
	}

	searchesTotal.WithLabelValues(s.webSearch.Name(), "ok").Inc()
	return results, nil
}

func (s *ReplyService) record(ctx context.Context, entry domain.JournalEntry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record journal entry", "error", err)
	}
}

// GetModelInfo returns information about the configured completion backend.
func (s *ReplyService) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	if s.completion == nil {
		return nil, ports.NewProviderError(s.config.Completion.Provider, ports.ErrCodeUnavailable, "completion backend not configured", nil)
	}
	return s.completion.GetModelInfo(ctx)
}

// GetModelName returns the name of the configured completion model.
func (s *ReplyService) GetModelName() string {
	switch s.config.Completion.Provider {
	case "openrouter":
		return s.config.Completion.OpenRouter.Model
	case "ollama":
		return s.config.Completion.Ollama.Model
	}
	return "unknown"
}

// SearchProviderName returns the active search provider name, or "none".
func (s *ReplyService) SearchProviderName() string {
	if s.webSearch == nil || !s.config.WebSearch.Enabled {
		return "none"
	}
	return s.webSearch.Name()
}

// RecentJournal returns the most recent journal entries, newest first. An
// absent journal yields an empty list, not an error.
func (s *ReplyService) RecentJournal(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if s.journal == nil {
		return []domain.JournalEntry{}, nil
	}
	return s.journal.Recent(ctx, limit)
}

// JournalCount returns the total number of journal entries.
func (s *ReplyService) JournalCount(ctx context.Context) (int, error) {
	if s.journal == nil {
		return 0, nil
	}
	return s.journal.Count(ctx)
}
