package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/city-explorer/internal/assistant"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (c *stubChecker) CheckReadiness(_ context.Context) error {
	return c.err
}

type fakeSession struct {
	events     []assistant.Event
	lastText   string
	resetCount int
	transcript []domain.ChatMessage
}

func (f *fakeSession) Send(_ context.Context, text string) <-chan assistant.Event {
	f.lastText = text
	ch := make(chan assistant.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (f *fakeSession) Reset() {
	f.resetCount++
}

func (f *fakeSession) Transcript() []domain.ChatMessage {
	return f.transcript
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(session ChatSession, readyErr error) (*Server, *state.Store) {
	store := state.New()
	return NewServer(":0", store, session, &stubChecker{err: readyErr}, discardLogger()), store
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint_NotReady(t *testing.T) {
	s, _ := newTestServer(nil, errors.New("geocoder unavailable"))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "geocoder unavailable")
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLocationEndpoint(t *testing.T) {
	s, store := newTestServer(nil, nil)

	seq := store.BeginCycle()
	store.SetLocation(seq, domain.DetectedAddress{
		ID:        "abc",
		Text:      "Central Park",
		Formatted: "Central Park, New York",
	})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/location", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot state.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.False(t, snapshot.Loading)
	require.NotNil(t, snapshot.Location)
	assert.Equal(t, "Central Park, New York", snapshot.Location.Address.Formatted)
	assert.NotNil(t, snapshot.Location.NearbyPlaces)
}

func TestLocationStream_SendsInitialSnapshot(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	server := httptest.NewServer(s)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/location/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: location\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var snapshot state.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &snapshot))
	assert.Nil(t, snapshot.Location)
	assert.False(t, snapshot.Loading)
}

func TestChatEndpoint_StreamsEvents(t *testing.T) {
	session := &fakeSession{events: []assistant.Event{
		{Kind: assistant.EventTextDelta, Text: "Hello"},
		{Kind: assistant.EventTextDelta, Text: " there"},
		{Kind: assistant.EventEnd},
	}}
	s, _ := newTestServer(session, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hi", session.lastText)

	body := rec.Body.String()
	assert.Contains(t, body, "event: delta")
	assert.Contains(t, body, `"Hello"`)
	assert.Contains(t, body, "event: end")
}

func TestChatEndpoint_EmptyMessage(t *testing.T) {
	s, _ := newTestServer(&fakeSession{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"  "}`))
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpoint_AssistantDisabled(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatNewEndpoint(t *testing.T) {
	session := &fakeSession{}
	s, _ := newTestServer(session, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/new", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, session.resetCount)
}

func TestChatHistoryEndpoint(t *testing.T) {
	session := &fakeSession{transcript: []domain.ChatMessage{
		{ID: "1", Role: "user", Content: "hi"},
		{ID: "2", Role: "assistant", Content: "hello"},
	}}
	s, _ := newTestServer(session, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var transcript []domain.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript, 2)
	assert.Equal(t, "assistant", transcript[1].Role)
}
