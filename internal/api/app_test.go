package api

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"grammar-practice/config"
	"grammar-practice/internal/core/grading"
	"grammar-practice/internal/core/speech"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradingReply = `{"content":[{"type":"text","text":"{\"feedback\":\"Good job!\",\"next_question\":\"Describe your last weekend.\"}"}]}`

// upstreams fakes the grading and speech services.
type upstreams struct {
	grading     *httptest.Server
	speech      *httptest.Server
	gradingHits int32
	speechHits  int32

	gradingStatus int
	gradingBody   string
	speechStatus  int
}

func newUpstreams(t *testing.T) *upstreams {
	u := &upstreams{
		gradingStatus: http.StatusOK,
		gradingBody:   gradingReply,
		speechStatus:  http.StatusOK,
	}
	u.grading = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.gradingHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.gradingStatus)
		w.Write([]byte(u.gradingBody))
	}))
	u.speech = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.speechHits, 1)
		if u.speechStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(u.speechStatus)
			w.Write([]byte(`{"error":{"message":"tts unavailable"}}`))
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3audio"))
	}))
	t.Cleanup(u.grading.Close)
	t.Cleanup(u.speech.Close)
	return u
}

func (u *upstreams) config(t *testing.T, gradingKey, speechKey string) config.Config {
	cfg := config.Default()
	cfg.Grading.BaseURL = u.grading.URL
	cfg.Grading.Key = gradingKey
	cfg.Grading.Timeout = 5 * time.Second
	cfg.Speech.BaseURL = u.speech.URL + "/"
	cfg.Speech.Key = speechKey
	cfg.Speech.Timeout = 5 * time.Second

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "grammar-practice.html"), []byte("<html>practice</html>"), 0o644))
	cfg.Static.Root = root
	return cfg
}

func newTestApp(cfg config.Config) *fiber.App {
	svc := grading.NewService(grading.NewGrader(cfg.Grading), speech.NewSynthesizer(cfg.Speech))
	return NewApp(cfg, svc, speech.NewSynthesizer(cfg.Speech))
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestCheckAnswer_Success(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "sk-ant", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/check_answer", `{"question":"Use 'go' in past simple.","user_answer":"I went home."}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	body := decode(t, raw)
	assert.Equal(t, "Good job!", body["text"])
	assert.Equal(t, "Describe your last weekend.", body["next_question"])
	assert.Equal(t, "Good job!. Next question: Describe your last weekend.", body["combined_text"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ID3audio")), body["audio_base64"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestCheckPreposition_SpeechFailureKeeps200(t *testing.T) {
	u := newUpstreams(t)
	u.speechStatus = http.StatusInternalServerError
	app := newTestApp(u.config(t, "sk-ant", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/check_preposition", `{"question":"q","user_answer":"a","next_preposition":"under"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	body := decode(t, raw)
	assert.Equal(t, "Good job!", body["text"])
	v, present := body["audio_base64"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.speechHits))
}

func TestCheckAnswer_SpeechNotConfiguredKeeps200(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "sk-ant", ""))

	resp, raw := do(t, app, http.MethodPost, "/api/check_answer", `{"question":"q","user_answer":"a"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Nil(t, decode(t, raw)["audio_base64"])
	assert.Zero(t, atomic.LoadInt32(&u.speechHits))
}

func TestCheckAnswer_MissingGradingKey(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "", "sk-openai"))

	for _, body := range []string{`{"question":"q","user_answer":"a"}`, `{}`, `not json`, ""} {
		resp, raw := do(t, app, http.MethodPost, "/api/check_answer", body)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, body)
		out := decode(t, raw)
		assert.Equal(t, "Service not configured", out["error"])
		assert.Contains(t, out["details"], "API key not found")
		assert.Equal(t, "GP-1002", out["error_code"])
	}
	assert.Zero(t, atomic.LoadInt32(&u.gradingHits))
	assert.Zero(t, atomic.LoadInt32(&u.speechHits))
}

func TestCheckAnswer_InvalidInput(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "sk-ant", "sk-openai"))

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "No JSON data provided"},
		{"malformed", `{"question":`, "No JSON data provided"},
		{"missing question", `{"user_answer":"a"}`, "Both question and user_answer are required"},
		{"missing answer", `{"question":"q"}`, "Both question and user_answer are required"},
		{"tense index out of range", `{"question":"q","user_answer":"a","tense_index":12}`, "Invalid request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := do(t, app, http.MethodPost, "/api/check_answer", tc.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.message, decode(t, raw)["error"])
		})
	}
	assert.Zero(t, atomic.LoadInt32(&u.gradingHits), "no upstream call on invalid input")
}

func TestCheckAnswer_UpstreamStatusPropagates(t *testing.T) {
	u := newUpstreams(t)
	u.gradingStatus = http.StatusTooManyRequests
	u.gradingBody = `{"type":"error","error":{"type":"rate_limit_error"}}`
	app := newTestApp(u.config(t, "sk-ant", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/check_answer", `{"question":"q","user_answer":"a"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	out := decode(t, raw)
	assert.Equal(t, "Claude API error: 429", out["error"])
	assert.Equal(t, u.gradingBody, out["details"])
	assert.Zero(t, atomic.LoadInt32(&u.speechHits))
}

func TestCheckAnswer_PlainTextReply(t *testing.T) {
	u := newUpstreams(t)
	u.gradingBody = `{"content":[{"type":"text","text":"Nice try! Remember the past participle."}]}`
	app := newTestApp(u.config(t, "sk-ant", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/check_answer", `{"question":"q","user_answer":"a"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, raw)
	assert.Equal(t, "Nice try! Remember the past participle.", out["text"])
	assert.Equal(t, "", out["next_question"])
	assert.Equal(t, out["text"], out["combined_text"])
}

func TestTTS(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/tts", `{"text":"Hello there"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ID3audio")), decode(t, raw)["audio_base64"])

	resp, raw = do(t, app, http.MethodPost, "/api/tts", `{"text":""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No text provided", decode(t, raw)["error"])
}

func TestGenerateAudio(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/generate-audio", `{"text":"Hello there"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "audio/mpeg", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, []byte("ID3audio"), raw)
}

func TestGenerateAudio_UpstreamFailure(t *testing.T) {
	u := newUpstreams(t)
	u.speechStatus = http.StatusBadGateway
	app := newTestApp(u.config(t, "", "sk-openai"))

	resp, raw := do(t, app, http.MethodPost, "/api/generate-audio", `{"text":"Hello"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	out := decode(t, raw)
	assert.Equal(t, "OpenAI TTS API error: 502", out["error"])
	assert.Contains(t, out["details"], "tts unavailable")
}

func TestSpeech_NotConfigured(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "sk-ant", ""))

	for _, path := range []string{"/api/tts", "/api/generate-audio"} {
		resp, raw := do(t, app, http.MethodPost, path, `{"text":"Hello"}`)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, path)
		assert.Equal(t, "Service not configured", decode(t, raw)["error"])
	}
	assert.Zero(t, atomic.LoadInt32(&u.speechHits))
}

func TestHealth(t *testing.T) {
	u := newUpstreams(t)

	resp, raw := do(t, newTestApp(u.config(t, "sk-ant-12345", "")), http.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, raw)
	assert.Equal(t, "OK", out["status"])
	assert.NotEmpty(t, out["message"])
	assert.Equal(t, true, out["api_configured"])

	_, raw = do(t, newTestApp(u.config(t, "", "")), http.MethodGet, "/health", "")
	assert.Equal(t, false, decode(t, raw)["api_configured"])
}

func TestTestAPIKey_DoesNotEchoKey(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "sk-ant-12345", ""))

	resp, raw := do(t, app, http.MethodGet, "/test-api-key", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, raw)
	assert.Equal(t, true, out["api_key_set"])
	assert.Equal(t, float64(len("sk-ant-12345")), out["api_key_length"])
	assert.NotContains(t, string(raw), "sk-ant")
}

func TestStaticAndNotFound(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "", ""))

	resp, raw := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "practice")

	resp, raw = do(t, app, http.MethodGet, "/grammar-practice.html", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "practice")

	resp, raw = do(t, app, http.MethodGet, "/no/such/page", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	out := decode(t, raw)
	assert.Equal(t, "Endpoint not found", out["error"])
	assert.Equal(t, "GP-9001", out["error_code"])

	resp, _ = do(t, app, http.MethodPost, "/api/unknown", `{}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealth_BlankKeyIsNotConfigured(t *testing.T) {
	u := newUpstreams(t)
	app := newTestApp(u.config(t, "   ", ""))

	_, raw := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, false, decode(t, raw)["api_configured"])

	_, raw = do(t, app, http.MethodGet, "/test-api-key", "")
	out := decode(t, raw)
	assert.Equal(t, false, out["api_key_set"])
	assert.Equal(t, float64(0), out["api_key_length"])
}
