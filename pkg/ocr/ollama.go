package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2-vision"

	transcriptionPrompt = "Transcribe all text in this image exactly as written. " +
		"Output only the text itself, preserving line breaks. " +
		"Do not describe the image or add commentary."
)

// OllamaBackend recognizes text through a local Ollama vision model.
// It is the second ensemble member and works wherever an Ollama server
// is reachable, independent of the tesseract build tag.
type OllamaBackend struct {
	BaseURL string
	Model   string

	client *http.Client
}

func NewOllamaBackend(baseURL, model string) *OllamaBackend {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaBackend) Name() string { return "ollama" }

// Available probes the server's tag listing with a short deadline.
func (o *OllamaBackend) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *OllamaBackend) Recognize(ctx context.Context, img image.Image, hint Hint) (string, error) {
	content, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(ollamaRequest{
		Model:  o.Model,
		Prompt: transcriptionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(content)},
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	log := logging.GetBackendLogger(o.Name(), "recognize")
	log.Debug().
		Str("model", o.Model).
		Int("text_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Ollama pass complete")

	return text, nil
}
