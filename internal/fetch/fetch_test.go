package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Jane Doe</h1><p>Platform engineer</p></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL+"/profile", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.HTML, "<h1>Jane Doe</h1>")

	// a non-200 still returns the result next to the error
	result, err = URL(context.Background(), server.URL+"/missing", nil)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, err.Error(), "404")

	_, err = URL(context.Background(), "not-a-valid-url", nil)
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestExtractMainText(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		selectors []string
		noise     []string
		want      []string
		unwanted  []string
	}{
		{
			name:     "main element without chrome",
			html:     `<html><body><nav>Menu</nav><main><h1>About me</h1><p>I build data pipelines.</p></main><footer>Copyright</footer></body></html>`,
			want:     []string{"About me", "data pipelines"},
			unwanted: []string{"Menu", "Copyright"},
		},
		{
			name: "article element",
			html: `<html><body><article><h1>Projects</h1><p>A Raft implementation in Go.</p></article></body></html>`,
			want: []string{"Projects", "Raft implementation"},
		},
		{
			name: "falls back to body",
			html: `<html><body><div>Open to remote roles.</div></body></html>`,
			want: []string{"Open to remote roles"},
		},
		{
			name:      "custom selectors and noise",
			html:      `<html><body><div class="course-sidebar">Related courses</div><div class="course-description"><h2>Syllabus</h2><p>Linear algebra for machine learning</p></div></body></html>`,
			selectors: []string{".course-description"},
			noise:     []string{".course-sidebar"},
			want:      []string{"Syllabus", "Linear algebra"},
			unwanted:  []string{"Related courses"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selectors := tt.selectors
			if selectors == nil {
				selectors = DefaultTextSelectors()
			}
			text, err := ExtractMainText(tt.html, selectors, tt.noise...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, text, w)
			}
			for _, u := range tt.unwanted {
				assert.NotContains(t, text, u)
			}
		})
	}
}

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "v1", r.Header.Get("X-Api-Version"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[{"name":"Go"}]}`))
	}))
	defer server.Close()

	c := NewClient(&Options{Headers: map[string]string{"X-Api-Version": "v1"}})
	var out struct {
		Elements []struct {
			Name string `json:"name"`
		} `json:"elements"`
	}
	require.NoError(t, c.GetJSON(context.Background(), server.URL, &out))
	require.Len(t, out.Elements, 1)
	assert.Equal(t, "Go", out.Elements[0].Name)
}

func TestClientGetJSON_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(nil).GetJSON(context.Background(), server.URL, &out)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "decode JSON")
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(&Options{RequestsPerSecond: 0.001, Burst: 1})
	_, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb", CleanWhitespace("  a  \n\n   b\n"))
}
