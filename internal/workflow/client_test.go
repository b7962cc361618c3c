package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&Config{BaseURL: server.URL})
}

func TestClient_Submit(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"prompt_id": "abc"}`))
	})

	res, err := client.Submit(context.Background(), testSettings(), "a prompt")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !res.OK {
		t.Errorf("OK = false, want true")
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.Seed != 42 {
		t.Errorf("Seed = %d, want 42", res.Seed)
	}
	if !strings.Contains(res.Body, "prompt_id") {
		t.Errorf("Body = %q, want server answer", res.Body)
	}

	if gotPath != "/prompt" {
		t.Errorf("request path = %q, want /prompt", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}

	var envelope map[string]map[string]any
	if err := json.Unmarshal(gotBody, &envelope); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if _, ok := envelope["prompt"]; !ok {
		t.Errorf("request body missing prompt wrapper: %s", gotBody)
	}
}

func TestClient_SubmitServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node validation failed", http.StatusInternalServerError)
	})

	res, err := client.Submit(context.Background(), testSettings(), "p")
	if err != nil {
		t.Fatalf("Submit() error = %v, want non-OK result instead", err)
	}
	if res.OK {
		t.Error("OK = true for a 500 answer")
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", res.StatusCode)
	}
	if !strings.Contains(res.Body, "node validation failed") {
		t.Errorf("Body = %q, want server message", res.Body)
	}
}

func TestClient_SubmitNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(&Config{BaseURL: url})

	_, err := client.Submit(context.Background(), testSettings(), "p")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Submit() error = %v, want ErrNetwork", err)
	}
}

func TestClient_SubmitLoraSelectsVariant(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	})

	settings := testSettings()
	settings.Lora = "style.safetensors"

	if _, err := client.Submit(context.Background(), settings, "p"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.Contains(string(gotBody), "LoraLoader") {
		t.Error("lora bundle did not select the lora template variant")
	}
}

func TestClient_Probe(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "healthy",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/system_stats" {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte(`{"system": {"os": "posix"}}`))
			},
			want: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: false,
		},
		{
			name: "non-json body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not an api</html>"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			if got := client.Probe(context.Background()); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_ProbeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(&Config{BaseURL: url})
	if client.Probe(context.Background()) {
		t.Error("Probe() = true for a closed server")
	}
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	client := New(&Config{BaseURL: "http://localhost:8188"})
	if got := client.BaseURL(); got != "http://localhost:8188/" {
		t.Errorf("BaseURL() = %q, want trailing slash", got)
	}

	client = New(&Config{})
	if got := client.BaseURL(); got != defaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, defaultBaseURL)
	}
}
