package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

/*
OCRTool recognizes text in an image through the Aliyun marketplace OCR
gateway. Customers mostly feed it order screenshots and shipping
labels, so the recognized text usually flows straight back into a
retrieval query.
*/
type OCRTool struct {
	BaseURL string
	client  *http.Client
}

type OCRToolOption func(*OCRTool)

func NewOCRTool(options ...OCRToolOption) *OCRTool {
	tool := &OCRTool{
		BaseURL: "https://gjbsb.market.alicloudapi.com/ocrservice/advanced",
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	for _, option := range options {
		option(tool)
	}

	return tool
}

// WithOCRBaseURL points the tool at a different gateway, which is also
// how tests stand in a local server.
func WithOCRBaseURL(baseURL string) OCRToolOption {
	return func(tool *OCRTool) {
		tool.BaseURL = baseURL
	}
}

func WithOCRHTTPClient(client *http.Client) OCRToolOption {
	return func(tool *OCRTool) {
		tool.client = client
	}
}

func (tool *OCRTool) Name() string {
	return "aliyun_ocr"
}

func (tool *OCRTool) Description() string {
	return "Recognizes text in an image given a local path or URL, e.g. order screenshots and shipping labels."
}

func (tool *OCRTool) RequiredEnv() []string {
	return []string{"ALIYUN_OCR_API_KEY", "ALIYUN_OCR_API_SECRET", "ALIYUN_IMAGE_APP_CODE"}
}

/*
Initialize probes the gateway with the configured APPCODE. The service
answers 400 to a probe without an image, which still proves the
credential is accepted and the endpoint reachable; only transport
errors and 5xx responses mark the tool unavailable.
*/
func (tool *OCRTool) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tool.BaseURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "APPCODE "+os.Getenv("ALIYUN_IMAGE_APP_CODE"))

	resp, err := tool.client.Do(req)
	if err != nil {
		return fmt.Errorf("ocr endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ocr endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

func (tool *OCRTool) Execute(ctx context.Context, argument string) (map[string]any, error) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return nil, fmt.Errorf("no image path or url given")
	}

	body := map[string]any{}

	if strings.HasPrefix(argument, "http://") || strings.HasPrefix(argument, "https://") {
		body["url"] = argument
	} else {
		data, err := os.ReadFile(argument)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", argument, err)
		}

		body["img"] = base64.StdEncoding.EncodeToString(data)
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tool.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "APPCODE "+os.Getenv("ALIYUN_IMAGE_APP_CODE"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := tool.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Content   string `json:"content"`
		WordCount int    `json:"prism_wnum"`
		WordsInfo []struct {
			Word string  `json:"word"`
			Prob float64 `json:"prob"`
		} `json:"prism_wordsInfo"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode ocr response: %w", err)
	}

	text := decoded.Content

	if text == "" {
		words := make([]string, 0, len(decoded.WordsInfo))
		for _, w := range decoded.WordsInfo {
			words = append(words, w.Word)
		}

		text = strings.Join(words, "\n")
	}

	var confidence float64
	if len(decoded.WordsInfo) > 0 {
		for _, w := range decoded.WordsInfo {
			confidence += w.Prob
		}

		confidence /= float64(len(decoded.WordsInfo))
	}

	words := decoded.WordCount
	if words == 0 {
		words = len(decoded.WordsInfo)
	}

	return map[string]any{
		"image":      argument,
		"text":       text,
		"words":      words,
		"confidence": confidence,
	}, nil
}
