package generationhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tvnz/video-generator/internal/adapter/outbound/runway"
	"github.com/tvnz/video-generator/internal/adapter/outbound/scratch"
	"github.com/tvnz/video-generator/internal/domain/generation"
	"github.com/tvnz/video-generator/internal/infra/config"
	"github.com/tvnz/video-generator/internal/model"
	"github.com/tvnz/video-generator/internal/utils/metrics"
	"github.com/tvnz/video-generator/internal/utils/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// stubUpstream records calls to a fake generation API.
type stubUpstream struct {
	server *httptest.Server
	calls  atomic.Int32
	status int
	body   string
	delay  time.Duration
	last   map[string]any
	path   string
}

func newStubUpstream(t *testing.T, status int, body string) *stubUpstream {
	t.Helper()
	s := &stubUpstream{status: status, body: body}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.path = r.URL.EscapedPath()
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&s.last)
		}
		if s.delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.delay):
			}
		}
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, s.body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

type testEnv struct {
	router   *gin.Engine
	upstream *stubUpstream
	fs       afero.Fs
}

func newTestEnv(t *testing.T, token string, upstream *stubUpstream, opts ...func(*config.RunwayConfig)) *testEnv {
	t.Helper()

	cfg := config.RunwayConfig{
		APIToken:                token,
		BaseURL:                 upstream.server.URL,
		APIVersion:              "2024-11-06",
		Model:                   "gen4_turbo",
		Ratio:                   "1280:720",
		Duration:                5,
		DefaultPrompt:           model.DefaultPromptText,
		Timeout:                 5 * time.Second,
		RetryInitialInterval:    time.Millisecond,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := metrics.NewWithRegistry("handler_test", prometheus.NewRegistry())

	policy, err := generation.NewMediaPolicy(nil)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	store := scratch.New(fs, "/uploads")
	client := runway.NewClient(upstream.server.Client(), cfg, m, zap.NewNop())
	domain := generation.NewDomain(policy, store, client, cfg.Parameters(), m, zap.NewNop())

	tmpl, err := Templates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(middleware.BodyLimit(16 << 20))
	NewHandler(domain, policy.Extensions(), cfg.DefaultPrompt).RegisterRoutes(router)

	return &testEnv{router: router, upstream: upstream, fs: fs}
}

func (e *testEnv) scratchFiles(t *testing.T) []string {
	t.Helper()
	infos, err := afero.ReadDir(e.fs, "/uploads")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

type formPart struct {
	field, filename string
	content         []byte
	isFile          bool
}

func fileField(filename string, content []byte) formPart {
	return formPart{field: "image", filename: filename, content: content, isFile: true}
}

func textField(name, value string) formPart {
	return formPart{field: name, content: []byte(value)}
}

func newMultipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.isFile {
			fw, err := w.CreateFormFile(p.field, p.filename)
			require.NoError(t, err)
			_, err = fw.Write(p.content)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, w.WriteField(p.field, string(p.content)))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-and-generate", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func withTimeout(d time.Duration) func(*config.RunwayConfig) {
	return func(cfg *config.RunwayConfig) { cfg.Timeout = d }
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t, "", newStubUpstream(t, http.StatusOK, `{}`))

	w := serve(env.router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"tvnz-video-generator"}`, w.Body.String())
	assert.Equal(t, int32(0), env.upstream.calls.Load())
}

func TestHandler_Index(t *testing.T) {
	env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{}`))

	w := serve(env.router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `name="image"`)
	assert.Contains(t, w.Body.String(), ".png")
	assert.Contains(t, w.Body.String(), ">"+model.DefaultPromptText+"</textarea>")
	assert.Contains(t, w.Body.String(), "body.delete('promptText')")
}

func TestHandler_UploadAndGenerate(t *testing.T) {
	t.Run("relays upstream JSON unchanged", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

		w := serve(env.router, newMultipartRequest(t,
			fileField("beach.jpeg", pngBytes),
			textField("promptText", "waves rolling in"),
		))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"id":"t1"}`, w.Body.String())
		assert.Equal(t, int32(1), env.upstream.calls.Load())
		assert.Equal(t, "/image_to_video", env.upstream.path)
		assert.Equal(t, "waves rolling in", env.upstream.last["promptText"])
		assert.Equal(t, model.DataURL("image/jpeg", pngBytes), env.upstream.last["promptImage"])
		assert.Empty(t, env.scratchFiles(t))
	})

	t.Run("absent prompt uses default", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

		w := serve(env.router, newMultipartRequest(t, fileField("a.png", pngBytes)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.DefaultPromptText, env.upstream.last["promptText"])
	})

	t.Run("empty prompt is sent empty", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

		w := serve(env.router, newMultipartRequest(t, fileField("a.png", pngBytes), textField("promptText", "")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "", env.upstream.last["promptText"])
	})

	t.Run("upstream error status is mirrored", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusTooManyRequests, "rate limited"))

		w := serve(env.router, newMultipartRequest(t, fileField("a.gif", pngBytes)))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"API request failed with status 429","details":"rate limited"}`, w.Body.String())
		assert.Empty(t, env.scratchFiles(t))
	})

	t.Run("upstream timeout", func(t *testing.T) {
		upstream := newStubUpstream(t, http.StatusOK, `{"id":"t1"}`)
		upstream.delay = 2 * time.Second
		env := newTestEnv(t, "token", upstream, withTimeout(50*time.Millisecond))

		w := serve(env.router, newMultipartRequest(t, fileField("a.png", pngBytes)))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Upstream request timed out", body["error"])
		assert.Contains(t, body["details"], "context deadline exceeded")
		assert.Empty(t, env.scratchFiles(t))
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t, "", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

		w := serve(env.router, newMultipartRequest(t, fileField("a.webp", pngBytes)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Runway API token not configured","message":"Please set RUNWAY_API_TOKEN environment variable"}`, w.Body.String())
		assert.Equal(t, int32(0), env.upstream.calls.Load())
		assert.Empty(t, env.scratchFiles(t))
	})
}

func TestHandler_UploadAndGenerate_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		expected string
	}{
		{
			name: "no image field",
			req: func(t *testing.T) *http.Request {
				return newMultipartRequest(t, textField("promptText", "hello"))
			},
			expected: `{"error":"No image file provided"}`,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/upload-and-generate", bytes.NewReader([]byte(`{}`)))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			expected: `{"error":"No image file provided"}`,
		},
		{
			name: "empty filename",
			req: func(t *testing.T) *http.Request {
				return newMultipartRequest(t, fileField("", nil))
			},
			expected: `{"error":"No file selected"}`,
		},
		{
			// A text value under "image" is indistinguishable from a file
			// part with an empty filename once parsed.
			name: "text value in image field",
			req: func(t *testing.T) *http.Request {
				return newMultipartRequest(t, textField("image", "not a file"))
			},
			expected: `{"error":"No file selected"}`,
		},
		{
			name: "disallowed extension",
			req: func(t *testing.T) *http.Request {
				return newMultipartRequest(t, fileField("notes.txt", []byte("hello")))
			},
			expected: `{"error":"Invalid file type"}`,
		},
		{
			name: "extension check is case-insensitive",
			req: func(t *testing.T) *http.Request {
				return newMultipartRequest(t, fileField("photo.BMP", pngBytes))
			},
			expected: `{"error":"Invalid file type"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

			w := serve(env.router, tt.req(t))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
			assert.Equal(t, int32(0), env.upstream.calls.Load())
			assert.Empty(t, env.scratchFiles(t))
		})
	}
}

func TestHandler_UploadAndGenerate_TooLarge(t *testing.T) {
	env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1"}`))

	req := newMultipartRequest(t, fileField("big.png", make([]byte, 16<<20+1)))
	w := serve(env.router, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"File too large","message":"Maximum upload size is 16 MiB"}`, w.Body.String())
	assert.Equal(t, int32(0), env.upstream.calls.Load())

	t.Run("without declared length", func(t *testing.T) {
		req := newMultipartRequest(t, fileField("big.png", make([]byte, 16<<20+1)))
		req.ContentLength = -1
		w := serve(env.router, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "File too large")
		assert.Equal(t, int32(0), env.upstream.calls.Load())
	})
}

func TestHandler_CheckStatus(t *testing.T) {
	t.Run("relays upstream JSON", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{"id":"t1","status":"SUCCEEDED","output":["https://cdn/v.mp4"]}`))

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"id":"t1","status":"SUCCEEDED","output":["https://cdn/v.mp4"]}`, w.Body.String())
		assert.Equal(t, "/tasks/t1", env.upstream.path)
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusTooManyRequests, "rate limited"))

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"API request failed with status 429","details":"rate limited"}`, w.Body.String())
	})

	t.Run("upstream timeout", func(t *testing.T) {
		upstream := newStubUpstream(t, http.StatusOK, `{}`)
		upstream.delay = 2 * time.Second
		env := newTestEnv(t, "token", upstream, withTimeout(50*time.Millisecond))

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Upstream request timed out", body["error"])
		assert.NotEmpty(t, body["details"])
	})

	t.Run("upstream unreachable opens the breaker", func(t *testing.T) {
		upstream := newStubUpstream(t, http.StatusOK, `{}`)
		env := newTestEnv(t, "token", upstream, func(cfg *config.RunwayConfig) {
			cfg.BreakerFailureThreshold = 1
		})
		upstream.server.Close()

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		w = serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"Upstream service unavailable","details":"circuit breaker is open"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t, "", newStubUpstream(t, http.StatusOK, `{}`))

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/t1", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Runway API token not configured")
		assert.Equal(t, int32(0), env.upstream.calls.Load())
	})

	t.Run("task id is escaped when forwarded", func(t *testing.T) {
		env := newTestEnv(t, "token", newStubUpstream(t, http.StatusOK, `{}`))

		w := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/check-status/a%20b", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/tasks/a%20b", env.upstream.path)
	})
}
