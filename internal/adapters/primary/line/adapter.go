package line

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"golang.org/x/time/rate"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/core/services"
	"github.com/takumi/line-bot/internal/logger"
)

// panicApology is sent when message processing dies unexpectedly. The
// composer itself never fails, so this only covers programming errors.
const panicApology = "Sorry, I encountered an error. Please try again."

// LineAdapter receives LINE webhook events and replies through the Messaging
// API. Each text message is composed and answered in its own goroutine so the
// webhook response returns immediately.
type LineAdapter struct {
	client        *linebot.Client
	replyService  *services.ReplyService
	log           logger.Logger
	config        *config.LineConfig
	limiter       *rate.Limiter
	processedMsgs sync.Map
}

// NewLineAdapter creates a new LineAdapter. Missing channel credentials yield
// an unavailable ProviderError so the server can run degraded with the
// webhook answering 503.
func NewLineAdapter(replyService *services.ReplyService, config *config.Config, log logger.Logger) (*LineAdapter, error) {
	if config.Line.ChannelSecret == "" || config.Line.ChannelAccessToken == "" {
		return nil, ports.NewProviderError("line", ports.ErrCodeUnavailable, "channel credentials not configured", nil)
	}

	client, err := linebot.New(config.Line.ChannelSecret, config.Line.ChannelAccessToken)
	if err != nil {
		log.Error("Failed to initialize LINE client", "error", err)
		return nil, ports.NewProviderError("line", ports.ErrCodeUnavailable, "client initialization failed", err)
	}

	// One reply per second with small bursts, well inside LINE API limits.
	limiter := rate.NewLimiter(rate.Every(time.Second), 10)

	return &LineAdapter{
		client:       client,
		replyService: replyService,
		log:          log,
		config:       &config.Line,
		limiter:      limiter,
	}, nil
}

// HandleWebhook is the POST /callback endpoint. With signature validation
// enabled the SDK checks X-Line-Signature against the channel secret;
// otherwise the body is decoded as-is.
func (a *LineAdapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var events []*linebot.Event

	if a.config.ValidateSignature {
		parsed, err := a.client.ParseRequest(r)
		if err != nil {
			if err == linebot.ErrInvalidSignature {
				a.log.Warn("Rejected webhook with invalid signature")
			} else {
				a.log.Warn("Rejected unparsable webhook", "error", err)
			}
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		events = parsed
	} else {
		var payload struct {
			Events []*linebot.Event `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			a.log.Warn("Rejected unparsable webhook", "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		events = payload.Events
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage {
			continue
		}
		if message, ok := event.Message.(*linebot.TextMessage); ok {
			a.handleTextMessage(event, message)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleTextMessage dispatches one text message for processing unless the
// webhook delivered it before.
func (a *LineAdapter) handleTextMessage(event *linebot.Event, message *linebot.TextMessage) {
	messageID := message.ID
	if messageID == "" {
		// No platform ID means no duplicate detection for this message.
		messageID = uuid.NewString()
	}

	if _, alreadyProcessed := a.processedMsgs.LoadOrStore(messageID, true); alreadyProcessed {
		a.log.Info("Skipping already processed message", "message_id", messageID)
		return
	}

	a.log.Info("Received message", "message_id", messageID, "length", len(message.Text))

	go a.processAndReply(event.ReplyToken, messageID, message.Text)
}

// processAndReply composes and sends the reply for one message.
func (a *LineAdapter) processAndReply(replyToken, messageID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Panic while processing message", "message_id", messageID, "panic", r)
			a.sendReply(ctx, replyToken, panicApology)
		}
	}()

	reply := a.replyService.ComposeReply(ctx, messageID, text)
	a.sendReply(ctx, replyToken, reply)
}

// sendReply sends a reply through the Messaging API, respecting rate limits.
func (a *LineAdapter) sendReply(ctx context.Context, replyToken, text string) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Error("Rate limiter wait failed", "error", err)
		return
	}

	_, err := a.client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	if err != nil {
		a.log.Error("Failed to send LINE reply", "error", err)
		return
	}

	a.log.Info("Sent reply", "length", len(text))
}
