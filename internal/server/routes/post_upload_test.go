package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/readingbooks/backend/internal/server/middleware"
	"github.com/readingbooks/backend/pkg/ai"
	"github.com/readingbooks/backend/pkg/graph"
	"github.com/readingbooks/backend/pkg/loader"
	"github.com/readingbooks/backend/pkg/loader/text"

	"github.com/labstack/echo/v4"
)

// stubAIClient fills structured outputs from a fixed JSON payload.
type stubAIClient struct {
	payload string
	err     error
}

func (s *stubAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return s.payload, s.err
}

func (s *stubAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.payload), out)
}

func (s *stubAIClient) ResetMetrics() {}

func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func newTestApp(t *testing.T, aiClient ai.Client) *middleware.App {
	t.Helper()

	registry := loader.NewRegistry()
	registry.Register("text/plain", text.NewExtractor())

	graphClient, err := graph.NewClient(graph.NewClientParams{
		AiClient: aiClient,
		Registry: registry,
	})
	if err != nil {
		t.Fatalf("graph.NewClient() error = %v", err)
	}

	return &middleware.App{
		AiClient:    aiClient,
		GraphClient: graphClient,
		Registry:    registry,
	}
}

func newUploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func newUploadContext(app *middleware.App, req *http.Request) (*middleware.AppContext, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return &middleware.AppContext{Context: c, App: app}, rec
}

func TestUploadHandler(t *testing.T) {
	app := newTestApp(t, &stubAIClient{
		payload: `{
			"entities": ["Alice", "Bob"],
			"relationships": [
				{"source_entity": "Alice", "target_entity": "Bob", "relationship_type": "met"}
			]
		}`,
	})

	input := "Alice met Bob at the station."
	cc, rec := newUploadContext(app, newUploadRequest(t, "meeting.txt", input))

	if err := UploadHandler(cc); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp.Filename != "meeting.txt" {
		t.Errorf("Filename = %q, want meeting.txt", resp.Filename)
	}
	if resp.Preview != input {
		t.Errorf("Preview = %q, want the full short document", resp.Preview)
	}
	if !reflect.DeepEqual(resp.Entities, []string{"Alice", "Bob"}) {
		t.Errorf("Entities = %v, want [Alice Bob]", resp.Entities)
	}
	if len(resp.Relationships) != 1 || resp.Relationships[0].Type != "met" {
		t.Errorf("Relationships = %+v, want a single 'met' edge", resp.Relationships)
	}
	if want := utf8.RuneCountInString(input); resp.TextLength != want {
		t.Errorf("TextLength = %d, want %d", resp.TextLength, want)
	}
	if resp.FailedChunks != 0 {
		t.Errorf("FailedChunks = %d, want 0", resp.FailedChunks)
	}
}

func TestUploadHandlerNoFile(t *testing.T) {
	app := newTestApp(t, &stubAIClient{payload: `{}`})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	cc, rec := newUploadContext(app, req)

	if err := UploadHandler(cc); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHandlerUnsupportedFormat(t *testing.T) {
	app := newTestApp(t, &stubAIClient{payload: `{}`})

	cc, rec := newUploadContext(app, newUploadRequest(t, "archive.zip", "PK"))

	if err := UploadHandler(cc); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != "Unsupported file format" {
		t.Errorf("Message = %q, want unsupported format message", resp.Message)
	}
}

func TestUploadHandlerDegradedChunksStillSucceed(t *testing.T) {
	app := newTestApp(t, &stubAIClient{err: ai.ErrUnavailable})

	cc, rec := newUploadContext(app, newUploadRequest(t, "doc.txt", "Some text about nobody."))

	if err := UploadHandler(cc); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", resp.FailedChunks)
	}
	if len(resp.Entities) != 0 {
		t.Errorf("Entities = %v, want none", resp.Entities)
	}
}

func TestUploadWithProgressHandler(t *testing.T) {
	app := newTestApp(t, &stubAIClient{
		payload: `{"entities": ["Alice"], "relationships": []}`,
	})

	cc, rec := newUploadContext(app, newUploadRequest(t, "doc.txt", "Alice travels alone."))

	if err := UploadWithProgressHandler(cc); err != nil {
		t.Fatalf("UploadWithProgressHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var events []progressEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev progressEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("decoding event %q: %v", payload, err)
		}
		events = append(events, ev)
	}

	if len(events) < 2 {
		t.Fatalf("got %d events, want progress plus final result", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Progress < events[i-1].Progress {
			t.Errorf("progress went backwards: %v", events)
		}
	}

	last := events[len(events)-1]
	if last.Status != string(graph.StateCompleted) || last.Progress != 100 {
		t.Errorf("final event = %+v, want completed at 100", last)
	}
	if last.Result == nil || !reflect.DeepEqual(last.Result.Entities, []string{"Alice"}) {
		t.Errorf("final result = %+v, want entities [Alice]", last.Result)
	}
}

func TestUploadWithProgressHandlerError(t *testing.T) {
	app := newTestApp(t, &stubAIClient{payload: `{}`})

	cc, rec := newUploadContext(app, newUploadRequest(t, "archive.zip", "PK"))

	if err := UploadWithProgressHandler(cc); err != nil {
		t.Fatalf("UploadWithProgressHandler() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"status":"error"`) {
		t.Errorf("stream = %q, want terminal error event", body)
	}
}
