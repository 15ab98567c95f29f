package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/google/uuid"
)

const maxToolRounds = 5

// streamFailureReply is shown to the user when the model stream breaks.
const streamFailureReply = "Sorry, I ran into a problem answering that. Please try again."

// Session is one conversation with the assistant. It keeps the model-facing
// message history and a user-facing transcript, and allows at most one
// in-flight exchange; starting a new one or resetting aborts the previous.
type Session struct {
	assistant *Assistant

	mu         sync.Mutex
	history    []anthropic.MessageParam
	transcript []domain.ChatMessage
	cancel     context.CancelFunc
}

// NewSession starts an empty conversation.
func (a *Assistant) NewSession() *Session {
	return &Session{assistant: a}
}

// Transcript returns a copy of the user-visible conversation so far.
func (s *Session) Transcript() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Reset aborts any in-flight exchange and clears the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.history = nil
	s.transcript = nil
}

// Send submits one user message and returns a channel of events covering the
// assistant's reply: text deltas, tool activity, and a terminal end or error
// event. The channel is closed when the exchange finishes or ctx is done.
func (s *Session) Send(ctx context.Context, text string) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.history = append(s.history, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
	s.transcript = append(s.transcript, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   text,
		Timestamp: domain.Now(),
	})
	history := make([]anthropic.MessageParam, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer cancel()
		s.run(ctx, history, events)
	}()
	return events
}

// run drives the stream/tool loop for one exchange.
func (s *Session) run(ctx context.Context, history []anthropic.MessageParam, events chan<- Event) {
	a := s.assistant
	var reply []string

	for round := 0; round <= maxToolRounds; round++ {
		stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     a.model,
			MaxTokens: a.maxTokens,
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages:  history,
			Tools:     a.tools,
		})

		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				a.logger.Warn("accumulate stream event", "error", err)
				continue
			}
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch d := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					reply = append(reply, d.Text)
					if !emit(ctx, events, Event{Kind: EventTextDelta, Text: d.Text}) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			a.logger.Error("assistant stream failed", "error", err)
			a.metrics.StreamErrors.Inc()
			s.appendAssistantTurn(streamFailureReply, nil)
			emit(ctx, events, Event{Kind: EventError, Text: streamFailureReply})
			emit(ctx, events, Event{Kind: EventEnd})
			return
		}

		history = append(history, message.ToParam())

		toolResults, done := s.processToolUses(ctx, message, events)
		if done {
			return
		}
		if len(toolResults) == 0 {
			s.appendAssistantTurn(joined(reply), history)
			emit(ctx, events, Event{Kind: EventEnd})
			return
		}
		history = append(history, anthropic.NewUserMessage(toolResults...))
	}

	// Tool loop did not converge; keep whatever text we streamed.
	a.logger.Warn("assistant tool loop exceeded round limit")
	s.appendAssistantTurn(joined(reply), history)
	emit(ctx, events, Event{Kind: EventEnd})
}

// processToolUses runs every tool-use block in the message and emits the
// corresponding events. done is true if the event channel consumer went away.
func (s *Session) processToolUses(ctx context.Context, message anthropic.Message, events chan<- Event) (results []anthropic.ContentBlockParamUnion, done bool) {
	for _, block := range message.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		input := []byte(toolUse.JSON.Input.Raw())
		if !emit(ctx, events, Event{Kind: EventToolCallRequested, ToolName: toolUse.Name, ToolInput: input}) {
			return nil, true
		}

		result, info := s.assistant.handleToolUse(ctx, toolUse.ID, toolUse.Name, input)
		results = append(results, result)

		if !emit(ctx, events, Event{Kind: EventToolCallCompleted, ToolName: toolUse.Name, Location: info}) {
			return nil, true
		}
	}
	return results, false
}

// appendAssistantTurn records the final assistant reply and, when a new
// model-facing history is supplied, replaces the session's history with it.
func (s *Session) appendAssistantTurn(content string, history []anthropic.MessageParam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if history != nil {
		s.history = history
	}
	s.transcript = append(s.transcript, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   content,
		Timestamp: domain.Now(),
	})
}

func joined(parts []string) string {
	return strings.Join(parts, "")
}

// emit delivers an event unless the consumer or context is gone. A short
// grace period avoids dropping terminal events on a briefly full channel.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(5 * time.Second):
		return false
	}
}
