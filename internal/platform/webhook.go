package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Webhook posts content as JSON to a configured endpoint. It is the
// simplest API-mode platform: publish POSTs, update PUTs to /<id>,
// delete DELETEs /<id>. The receiver decides what to do with it.
type Webhook struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewWebhook builds a webhook platform from settings. The endpoint is
// required; the API key is sent as a bearer token when present.
func NewWebhook(s Settings) (Platform, error) {
	endpoint := strings.TrimRight(s.Endpoint, "/")
	if endpoint == "" {
		return nil, errors.New("webhook: endpoint is required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("webhook: endpoint %q is not an http(s) URL", endpoint)
	}
	return &Webhook{
		endpoint: endpoint,
		apiKey:   s.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Capabilities() Capabilities {
	return Capabilities{
		Update: true,
		Delete: true,
		Mode:   ModeAPI,
		Form:   FormLong,
	}
}

type webhookPayload struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Tags         []string `json:"tags,omitempty"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	Draft        bool     `json:"draft,omitempty"`
}

type webhookResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (w *Webhook) Publish(ctx context.Context, post Post) (Publication, error) {
	return w.send(ctx, http.MethodPost, w.endpoint, post)
}

func (w *Webhook) Update(ctx context.Context, remoteID string, post Post) (Publication, error) {
	return w.send(ctx, http.MethodPut, w.endpoint+"/"+remoteID, post)
}

func (w *Webhook) Delete(ctx context.Context, remoteID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, w.endpoint+"/"+remoteID, nil)
	if err != nil {
		return fmt.Errorf("webhook delete: %w", err)
	}
	w.auth(req)
	resp, err := w.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if perr := FromStatus(resp.StatusCode, strings.TrimSpace(string(body)), parseRetryAfter(resp.Header)); perr != nil {
		return perr
	}
	return nil
}

func (w *Webhook) send(ctx context.Context, method, url string, post Post) (Publication, error) {
	payload, err := json.Marshal(webhookPayload{
		Title:        post.Title,
		Body:         post.Body,
		Tags:         post.Tags,
		CanonicalURL: post.CanonicalURL,
		Draft:        post.Draft,
	})
	if err != nil {
		return Publication{}, fmt.Errorf("webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return Publication{}, fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	w.auth(req)

	resp, err := w.client.Do(req)
	if err != nil {
		return Publication{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if perr := FromStatus(resp.StatusCode, strings.TrimSpace(string(body)), parseRetryAfter(resp.Header)); perr != nil {
		return Publication{}, perr
	}

	var out webhookResponse
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		// Receiver returned no usable body; synthesize an id from the URL.
		return Publication{ID: url, URL: url}, nil
	}
	return Publication{ID: out.ID, URL: out.URL}, nil
}

func (w *Webhook) auth(req *http.Request) {
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
}

// classifyTransport maps a transport-level failure onto the taxonomy.
// Connect and timeout errors are transient; everything else local is not.
func classifyTransport(err error) *Error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return NewTransient("request timed out", err)
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return NewTransient("connection failed", err)
	}
	return NewTransient(err.Error(), err)
}

// parseRetryAfter reads a Retry-After header as either delta-seconds or
// an HTTP date. Returns 0 when absent or unparsable.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
