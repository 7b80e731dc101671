package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestUploadFile(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/upload/v1beta/files") {
			t.Errorf("path = %s, want /upload/v1beta/files", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want %q", got, "test-key")
		}
		if got := r.Header.Get("Content-Type"); !strings.HasPrefix(got, "multipart/related") {
			t.Errorf("content type = %q, want multipart/related", got)
		}
		fmt.Fprint(w, `{"file": {"name": "files/abc", "uri": "https://example.com/v1beta/files/abc", "mimeType": "audio/wav"}}`)
	})

	file, err := c.UploadFile(context.Background(), []byte("RIFFdata"), "rec_test.wav")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if file.Name != "files/abc" {
		t.Errorf("file name = %q, want %q", file.Name, "files/abc")
	}
	if file.URI == "" {
		t.Error("file URI must be set")
	}
}

func TestUploadFileAuthError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	})

	_, err := c.UploadFile(context.Background(), []byte("x"), "rec.wav")
	if KindOf(err) != KindPermissionDenied {
		t.Fatalf("KindOf = %v, want KindPermissionDenied (err: %v)", KindOf(err), err)
	}
}

func TestGenerateContent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("path = %s, want generateContent on test-model", r.URL.Path)
		}
		fmt.Fprint(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "  Hello world\n"}]}}]}`)
	})

	text, err := c.GenerateContent(context.Background(), "test-model", "transcribe",
		File{URI: "https://example.com/v1beta/files/abc", MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if text != "Hello world" {
		t.Errorf("text = %q, want %q (trimmed)", text, "Hello world")
	}
}

func TestGenerateContentBlockedVsEmpty(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKind   Kind
		wantReason string
	}{
		{
			name:       "blocked with reason and ratings",
			body:       `{"candidates": [], "promptFeedback": {"blockReason": "SAFETY", "safetyRatings": [{"category": "HARM_CATEGORY_HARASSMENT", "probability": "HIGH"}]}}`,
			wantKind:   KindBlocked,
			wantReason: "SAFETY",
		},
		{
			name:     "empty without reason",
			body:     `{"candidates": []}`,
			wantKind: KindEmpty,
		},
		{
			name:     "candidate with blank text",
			body:     `{"candidates": [{"content": {"parts": [{"text": "  "}]}}]}`,
			wantKind: KindEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := c.GenerateContent(context.Background(), "m", "p", File{URI: "u", MIMEType: "audio/wav"})
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", apiErr.Reason, tt.wantReason)
			}
			if tt.wantKind == KindBlocked && len(apiErr.SafetyRatings) != 1 {
				t.Errorf("safety ratings = %d, want 1", len(apiErr.SafetyRatings))
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"permission denied", 403, `{"error": {"status": "PERMISSION_DENIED", "message": "no"}}`, KindPermissionDenied},
		{"unauthenticated", 401, `{}`, KindPermissionDenied},
		{"model not found", 404, `{"error": {"status": "NOT_FOUND", "message": "unknown model"}}`, KindInvalidModel},
		{"bad argument", 400, `{"error": {"status": "INVALID_ARGUMENT", "message": "bad"}}`, KindInvalidModel},
		{"quota", 429, `{"error": {"status": "RESOURCE_EXHAUSTED", "message": "limit"}}`, KindQuotaExceeded},
		{"server error", 500, `boom`, KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.status, []byte(tt.body))
			if got.Kind != tt.want {
				t.Errorf("classify(%d) kind = %v, want %v", tt.status, got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Error("classified error must carry a message")
			}
		})
	}
}

func TestDeleteFile(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	})

	if err := c.DeleteFile(context.Background(), "files/abc"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if gotPath != "/v1beta/files/abc" {
		t.Errorf("path = %q, want %q", gotPath, "/v1beta/files/abc")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("connection refused")); got != KindTransport {
		t.Errorf("KindOf(plain error) = %v, want KindTransport", got)
	}
}
