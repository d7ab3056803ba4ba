package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/besttest/besttest/pkg/types"
)

// RunRequest is the body of POST /api/{framework}/run.
type RunRequest struct {
	TestName    string   `json:"testName"`
	Tags        []string `json:"tags"`
	Priority    string   `json:"priority"`
	Description string   `json:"description,omitempty"`
}

// RunResponse is the reply of POST /api/{framework}/run. Duration is in
// seconds.
type RunResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Duration    float64  `json:"duration"`
	Screenshots []string `json:"screenshots"`
	ReportURL   string   `json:"reportUrl,omitempty"`
}

// HTTP runs cases against a remote execution backend.
//
// StatusPath and MessagePath are optional JSONPath expressions (for example
// "$.result.state") for backends whose reply does not follow RunResponse.
type HTTP struct {
	BaseURL     string
	APIKey      string
	Client      *http.Client
	StatusPath  string
	MessagePath string
}

// NewHTTP returns an HTTP executor for baseURL.
func NewHTTP(baseURL, apiKey string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

// RequestFor builds the request body for a case. Tags come from the case's
// reference field.
func RequestFor(c types.CaseView) RunRequest {
	var tags []string
	for _, t := range strings.Split(c.Reference, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return RunRequest{
		TestName:    c.Name,
		Tags:        tags,
		Priority:    strings.ToLower(string(c.Priority)),
		Description: c.Steps,
	}
}

// Run posts the case to the backend and maps the reply to an Outcome.
func (h *HTTP) Run(ctx context.Context, c types.CaseView) (Outcome, error) {
	body, err := json.Marshal(RequestFor(c))
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal run request: %w", err)
	}
	url := fmt.Sprintf("%s/api/%s/run", h.BaseURL, FrameworkFor(c.Type))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("run %s: %w", c.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Outcome{}, fmt.Errorf("run %s: backend returned %s: %s", c.Name, resp.Status, strings.TrimSpace(string(msg)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("read run response: %w", err)
	}
	var rr RunResponse
	if h.StatusPath != "" || h.MessagePath != "" {
		if err := h.decodeLoose(raw, &rr); err != nil {
			return Outcome{}, err
		}
	} else if err := json.Unmarshal(raw, &rr); err != nil {
		return Outcome{}, fmt.Errorf("decode run response: %w", err)
	}
	return Outcome{
		Verdict:     VerdictForStatus(rr.Status),
		Message:     rr.Message,
		Duration:    time.Duration(rr.Duration * float64(time.Second)),
		Screenshots: rr.Screenshots,
	}, nil
}

// decodeLoose reads a reply that need not follow RunResponse. Status and
// message come from the configured JSONPath expressions; every other
// RunResponse field is taken only when its type matches.
func (h *HTTP) decodeLoose(raw []byte, rr *RunResponse) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode run response: %w", err)
	}
	if obj, ok := doc.(map[string]any); ok {
		if v, ok := obj["status"].(string); ok {
			rr.Status = v
		}
		if v, ok := obj["message"].(string); ok {
			rr.Message = v
		}
		if v, ok := obj["duration"].(float64); ok {
			rr.Duration = v
		}
		if v, ok := obj["reportUrl"].(string); ok {
			rr.ReportURL = v
		}
		if list, ok := obj["screenshots"].([]any); ok {
			for _, item := range list {
				if name, ok := item.(string); ok {
					rr.Screenshots = append(rr.Screenshots, name)
				}
			}
		}
	}

	if h.StatusPath != "" {
		v, err := jsonpath.Get(h.StatusPath, doc)
		if err != nil {
			return fmt.Errorf("status path %s: %w", h.StatusPath, err)
		}
		rr.Status = fmt.Sprint(v)
	}
	if h.MessagePath != "" {
		if v, err := jsonpath.Get(h.MessagePath, doc); err == nil {
			rr.Message = fmt.Sprint(v)
		}
	}
	return nil
}
