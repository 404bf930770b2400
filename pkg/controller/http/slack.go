// Package http exposes the Slack Events API webhook over chi.
package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gjum/newsroom/pkg/controller/chat"
	"github.com/gjum/newsroom/pkg/usecase"
	"github.com/gjum/newsroom/pkg/utils/async"
	"github.com/gjum/newsroom/pkg/utils/errutil"
	"github.com/gjum/newsroom/pkg/utils/logging"
	"github.com/gjum/newsroom/pkg/utils/safe"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack/slackevents"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const slackBodyKey contextKey = "slack_body"

// verifySlackSignature verifies the Slack request signature
// This is a pure function that can be used independently for testing
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer safe.Close(ctx, r.Body)

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Store body in context for later use and restore it to the request
			ctx = context.WithValue(ctx, slackBodyKey, body)
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SlackWebhookHandler handles Slack Events API webhook requests
type SlackWebhookHandler struct {
	registry  *chat.Registry
	starboard *usecase.StarboardUseCase
}

// NewSlackWebhookHandler creates a new Slack webhook handler
func NewSlackWebhookHandler(registry *chat.Registry, starboard *usecase.StarboardUseCase) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		registry:  registry,
		starboard: starboard,
	}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Read body (already verified by middleware)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.URLVerification:
		var resp *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(resp.Challenge))
		return

	case slackevents.CallbackEvent:
		// Return 200 immediately to satisfy Slack's 3-second timeout requirement
		w.WriteHeader(http.StatusOK)

		eventID := uuid.NewString()
		async.Dispatch(ctx, func(ctx context.Context) error {
			ctx = logging.With(ctx, logging.From(ctx).With("event_id", eventID))
			return h.handleCallbackEvent(ctx, &eventsAPIEvent)
		})

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", eventsAPIEvent.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackWebhookHandler) handleCallbackEvent(ctx context.Context, ev *slackevents.EventsAPIEvent) error {
	switch inner := ev.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// skip bot posts and edits/joins/etc, only fresh user messages
		// are command candidates
		if inner.BotID != "" || inner.SubType != "" {
			return nil
		}
		return h.registry.HandleMessage(ctx, chat.MessageEvent{
			ChannelID: inner.Channel,
			UserID:    inner.User,
			Text:      inner.Text,
		})

	case *slackevents.ReactionAddedEvent:
		return h.starboard.HandleReactionAdded(ctx, usecase.ReactionEvent{
			ChannelID: inner.Item.Channel,
			MessageTS: inner.Item.Timestamp,
			UserID:    inner.User,
			Emoji:     inner.Reaction,
		})

	default:
		logging.From(ctx).Debug("ignoring slack event", "type", ev.InnerEvent.Type)
		return nil
	}
}
