package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dkeye/CodeRoom/internal/domain"
)

const maxResponseBytes = 1 << 20

var ErrProviderStatus = errors.New("execution provider returned non-success status")

type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Request is the body accepted by Piston-compatible providers.
type Request struct {
	Language domain.Language `json:"language"`
	Version  string          `json:"version"`
	Files    []File          `json:"files"`
}

type stage struct {
	Output string `json:"output"`
	Stderr string `json:"stderr"`
}

// Response keeps only the fields the bridge consumes. Some providers put
// output at the top level, Piston nests it under run.
type Response struct {
	Output string `json:"output"`
	Stderr string `json:"stderr"`
	Run    *stage `json:"run,omitempty"`
}

func (r Response) output() string {
	if r.Output == "" && r.Run != nil {
		return r.Run.Output
	}
	return r.Output
}

func (r Response) stderr() string {
	if r.Stderr == "" && r.Run != nil {
		return r.Run.Stderr
	}
	return r.Stderr
}

type Provider interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// PistonProvider talks to a Piston execute endpoint over HTTP.
type PistonProvider struct {
	URL    string
	Client *http.Client
}

func NewPistonProvider(url string) *PistonProvider {
	return &PistonProvider{URL: url, Client: &http.Client{}}
}

func (p *PistonProvider) Execute(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("post %s: %w", p.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Response{}, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
