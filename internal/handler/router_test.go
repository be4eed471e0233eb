package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/interview-sim/backend/internal/handler/chat"
	interviewhandler "github.com/zhouzirui/interview-sim/backend/internal/handler/interview"
	evalmodel "github.com/zhouzirui/interview-sim/backend/internal/model/evaluation"
	personaModel "github.com/zhouzirui/interview-sim/backend/internal/model/persona"
	"github.com/zhouzirui/interview-sim/backend/internal/service/document"
	"github.com/zhouzirui/interview-sim/backend/internal/service/evaluation"
	interviewService "github.com/zhouzirui/interview-sim/backend/internal/service/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
)

type textExtractor struct{}

func (textExtractor) Extract(context.Context, []byte, string) (string, error) {
	return "Jane Doe. Backend engineer. Go, Kafka, PostgreSQL.", nil
}

type interviewerModel struct {
	mu    sync.Mutex
	calls int
}

func (m *interviewerModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if strings.Contains(input[0].Content, "concluding an interview") {
		return schema.AssistantMessage("Thank you for your time, we will contact you for the next round.", nil), nil
	}
	return schema.AssistantMessage(fmt.Sprintf("Tell me more about project %d?", m.calls), nil), nil
}

func (m *interviewerModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type graderModel struct {
	mu         sync.Mutex
	transcript string
}

func (m *graderModel) lastTranscript() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript
}

func (m *graderModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.transcript = input[len(input)-1].Content
	m.mu.Unlock()
	return schema.AssistantMessage(`{
  "evaluations": [
    {"parameter": "Technical Knowledge", "result": "70", "score": "70/100", "evidence": ["Kafka consumers"]},
    {"parameter": "Problem Solving", "result": "65", "score": "65/100", "evidence": ["retry design"]},
    {"parameter": "Communication", "result": "60", "score": "60/80", "evidence": ["clear"]},
    {"parameter": "Interpersonal Skills", "result": "Pass", "score": "Pass", "evidence": ["polite"]}
  ],
  "Overall_score": "275/360",
  "Overall_grammar": "Good",
  "Overall_accent": "Neutral",
  "Overall_analysis": "Capable backend engineer."
}`, nil), nil
}

func (m *graderModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type countingSpeaker struct {
	mu sync.Mutex
	n  int
}

func (s *countingSpeaker) Render(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("https://blob.test/audio/%d.wav", s.n), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *graderModel, string) {
	t.Helper()
	store := interviewService.NewStore()
	personas := personaModel.NewMemoryStore(personaModel.Seed())
	engine, err := interviewService.NewEngine(context.Background(), store, personas, &interviewerModel{},
		interviewService.Options{MaxTurns: 10, Speaker: &countingSpeaker{}})
	require.NoError(t, err)

	grader := &graderModel{}
	evaluator, err := evaluation.NewService(context.Background(), store, evalmodel.DefaultRubric(), grader, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir, "http://api.test")
	require.NoError(t, err)

	router := NewRouter(Services{
		Personas: personas,
		Engine:   engine,
		Interview: interviewhandler.Deps{
			Ingestor:   document.NewIngestor(textExtractor{}, store, nil),
			Greeter:    engine,
			Sessions:   store,
			Evaluator:  evaluator,
			Recordings: local,
			Publisher:  local,
		},
		RecordingsDir: dir,
		PingInterval:  time.Minute,
		Connections:   chat.NewConnectionManager(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, grader, dir
}

func uploadResume(t *testing.T, baseURL, name string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/interview/upload", mw.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, name, out["file"])
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == "response" || msg["error"] != nil {
			return msg
		}
	}
}

func TestInterviewEndToEnd(t *testing.T) {
	srv, grader, _ := newTestServer(t)
	uploadResume(t, srv.URL, "jane.pdf")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/interview/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"file_name": "jane.pdf"}))
	for i := 1; i <= 10; i++ {
		require.NoError(t, conn.WriteJSON(map[string]string{"query": fmt.Sprintf("My answer number %d.", i)}))
		reply := readReply(t, conn)
		require.Nil(t, reply["error"])
		assert.Equal(t, i == 10, reply["finished"], "turn %d", i)
		assert.Equal(t, fmt.Sprintf("https://blob.test/audio/%d.wav", i), reply["audio"])
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/interview/end_chat?file_name=jane.pdf", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Scorecard struct {
			ConversationID string `json:"conversation_id"`
			Analysis       struct {
				Evaluations  []map[string]any `json:"evaluations"`
				OverallScore string           `json:"Overall_score"`
			} `json:"analysis"`
		} `json:"scorecard"`
		Conversation struct {
			ID       string              `json:"_id"`
			Messages []map[string]string `json:"messages"`
		} `json:"conversation"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Len(t, out.Scorecard.Analysis.Evaluations, 4)
	assert.Regexp(t, `^\d+/360$`, out.Scorecard.Analysis.OverallScore)
	assert.Equal(t, "275/360", out.Scorecard.Analysis.OverallScore)
	assert.Equal(t, "jane.pdf", out.Conversation.ID)
	require.Len(t, out.Conversation.Messages, 10)
	assert.Equal(t, "My answer number 10.", out.Conversation.Messages[9]["user"])
	assert.Contains(t, grader.lastTranscript(), "User: My answer number 1.\nAssistant: Tell me more about project 1?")

	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestRecordingIsServedLocally(t *testing.T) {
	srv, _, dir := newTestServer(t)
	uploadResume(t, srv.URL, "jane.pdf")

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("file_name", "jane.pdf"))
	part, err := mw.CreateFormFile("video", "take1.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("webm-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/interview/upload-video", mw.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := os.ReadFile(filepath.Join(dir, "jane.pdf-interview.webm"))
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(data))

	served, err := http.Get(srv.URL + storage.RoutePrefix + "/jane.pdf-interview.webm")
	require.NoError(t, err)
	defer served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestHealthAndCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/interview/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
