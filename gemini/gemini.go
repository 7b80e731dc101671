// Package gemini provides an HTTP client for the Gemini file and generation
// APIs: upload an audio file, generate content against it, delete it.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// audioMIMEType is the only payload type this application uploads.
const audioMIMEType = "audio/wav"

// File identifies an uploaded audio resource on the service.
type File struct {
	Name     string `json:"name"` // e.g. "files/abc-123"
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
}

// Client talks to the Gemini API. The zero value is not usable; use NewClient.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewClient creates a client authenticated with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		// Generation against audio can take tens of seconds.
		http:    &http.Client{Timeout: 2 * time.Minute},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
}

// Request/response types for the generateContent endpoint.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type fileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type promptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type uploadResponse struct {
	File File `json:"file"`
}

// UploadFile uploads WAV audio and returns the created file resource.
func (c *Client) UploadFile(ctx context.Context, data []byte, displayName string) (File, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	meta, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=utf-8"},
	})
	if err != nil {
		return File{}, fmt.Errorf("create metadata part: %w", err)
	}
	metadata := map[string]any{
		"file": map[string]any{"display_name": displayName},
	}
	if err := json.NewEncoder(meta).Encode(metadata); err != nil {
		return File{}, fmt.Errorf("encode metadata: %w", err)
	}

	media, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {audioMIMEType},
	})
	if err != nil {
		return File{}, fmt.Errorf("create media part: %w", err)
	}
	if _, err := media.Write(data); err != nil {
		return File{}, fmt.Errorf("write media: %w", err)
	}
	if err := mw.Close(); err != nil {
		return File{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return File{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	respBody, err := c.do(req)
	if err != nil {
		return File{}, err
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return File{}, &Error{Kind: KindTransport, Message: fmt.Sprintf("unmarshal upload response: %v", err)}
	}
	if uploaded.File.Name == "" {
		return File{}, &Error{Kind: KindTransport, Message: "upload response missing file resource"}
	}
	if uploaded.File.MIMEType == "" {
		uploaded.File.MIMEType = audioMIMEType
	}
	return uploaded.File, nil
}

// GenerateContent runs the model over the prompt plus the uploaded audio and
// returns the trimmed response text.
//
// An empty response carrying an explicit block reason is reported as
// KindBlocked with the reason and itemized safety ratings; an empty response
// without one is KindEmpty.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string, file File) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{FileData: &fileData{MIMEType: file.MIMEType, FileURI: file.URI}},
			},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", &Error{Kind: KindTransport, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}

	text := responseText(genResp)
	if text != "" {
		return text, nil
	}

	if fb := genResp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", &Error{
			Kind:          KindBlocked,
			Message:       "request blocked by safety filter",
			Reason:        fb.BlockReason,
			SafetyRatings: fb.SafetyRatings,
		}
	}
	return "", &Error{Kind: KindEmpty, Message: "empty response from model"}
}

// DeleteFile removes an uploaded file resource.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, err = c.do(req)
	return err
}

// do executes the request and returns the response body, converting HTTP and
// API-level failures into classified *Error values.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("read response: %v", err), err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, body)
	}
	return body, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
