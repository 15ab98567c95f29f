// Package assistant adapts the Anthropic Messages API to the City Explorer
// chat: streamed tokens, a detect_address tool that feeds the location
// resolution pipeline, and session management with abortable streams.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/couchcryptid/city-explorer/internal/config"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
)

const detectAddressToolName = "detect_address"

const systemPrompt = `You are the City Explorer assistant. You help users explore cities and learn about places they mention.

Whenever the user mentions a concrete address or place, call the detect_address tool with that address so the map can show it, then weave the resolved location and its nearby places into your answer. Acknowledge the location, share something interesting about the area, and ask a follow-up question to help the user explore more.

Be friendly, informative, and conversational.`

var detectAddressSchema = anthropic.ToolInputSchemaParam{
	Properties: map[string]interface{}{
		"address": map[string]interface{}{
			"type":        "string",
			"description": "The address or place mentioned by the user, as free text.",
		},
	},
}

// AddressResolver is the pipeline surface the detect_address tool drives.
type AddressResolver interface {
	RunDetectionCycle(ctx context.Context, rawText string) *domain.LocationInfo
}

// Assistant owns the Anthropic client and tool wiring. Sessions are created
// from it; the Assistant itself is stateless across sessions.
type Assistant struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	tools     []anthropic.ToolUnionParam
	resolver  AddressResolver
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Assistant from the service configuration.
func New(cfg *config.Config, resolver AddressResolver, logger *slog.Logger, metrics *observability.Metrics) *Assistant {
	tool := anthropic.ToolParam{
		Name:        detectAddressToolName,
		Description: anthropic.String("Resolves an address mentioned by the user to coordinates and nearby points of interest, and shows it on the map."),
		InputSchema: detectAddressSchema,
	}

	return &Assistant{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:     anthropic.Model(cfg.AssistantModel),
		maxTokens: int64(cfg.AssistantMaxTokens),
		tools:     []anthropic.ToolUnionParam{{OfTool: &tool}},
		resolver:  resolver,
		logger:    logger,
		metrics:   metrics,
	}
}

// handleToolUse dispatches one tool invocation and returns the result block
// to send back to the model.
func (a *Assistant) handleToolUse(ctx context.Context, id, name string, input []byte) (anthropic.ContentBlockParamUnion, *domain.LocationInfo) {
	if name != detectAddressToolName {
		a.metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return anthropic.NewToolResultBlock(id, `{"error":"unknown tool"}`, true), nil
	}

	address, err := parseDetectInput(input)
	if err != nil {
		a.logger.Warn("bad detect_address input", "error", err)
		a.metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return anthropic.NewToolResultBlock(id, `{"error":"address must be a non-empty string"}`, true), nil
	}

	info := a.resolver.RunDetectionCycle(ctx, address)
	a.metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
	return anthropic.NewToolResultBlock(id, toolResultPayload(info), false), info
}

// parseDetectInput extracts the address argument of a detect_address call.
func parseDetectInput(raw []byte) (string, error) {
	var input struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return "", fmt.Errorf("decode tool input: %w", err)
	}
	if strings.TrimSpace(input.Address) == "" {
		return "", errors.New("empty address")
	}
	return input.Address, nil
}

// toolResultPayload renders what the model gets back from detect_address:
// enough of the resolved location to talk about it, without the full record.
func toolResultPayload(info *domain.LocationInfo) string {
	if info == nil {
		return `{"found":false}`
	}

	type placeSummary struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Distance int    `json:"distanceMeters"`
	}
	payload := struct {
		Found       bool               `json:"found"`
		Formatted   string             `json:"formatted"`
		Coordinates domain.Coordinates `json:"coordinates"`
		City        string             `json:"city,omitempty"`
		Country     string             `json:"country,omitempty"`
		Nearby      []placeSummary     `json:"nearbyPlaces"`
	}{
		Found:       true,
		Formatted:   info.Address.Formatted,
		Coordinates: info.Address.Coordinates,
		City:        info.Address.City,
		Country:     info.Address.Country,
		Nearby:      make([]placeSummary, 0, len(info.NearbyPlaces)),
	}
	for _, p := range info.NearbyPlaces {
		payload.Nearby = append(payload.Nearby, placeSummary{Name: p.Name, Type: p.Type, Distance: p.Distance})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return `{"found":false}`
	}
	return string(data)
}
