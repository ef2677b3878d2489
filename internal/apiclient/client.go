// Package apiclient is a typed client for the JustiBot case API.
//
// Errors answered by the server are returned as [*failure.Failure] values, which match the domain sentinels with
// errors.Is. The client implements [workflow.CaseService] so that a workflow can run on the caller's side.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/justibot/justibot/internal/api"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
)

// ErrUnexpectedResponse is returned when the server answers with something that is not part of the API.
var ErrUnexpectedResponse = errors.NewSentinel("unexpected response")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient selects a client without a global timeout,
// callers bound requests with their context.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{} //nolint:exhaustruct // defaults
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) CreateCase(ctx context.Context, category models.Category, description string) (*models.Case, error) {
	var out api.Case
	req := api.CreateCaseRequest{Category: category, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/v1/cases", req, &out); err != nil {
		return nil, errors.Wrap(err, "create case")
	}
	return out.Model(), nil
}

func (c *Client) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	var out api.Case
	if err := c.do(ctx, http.MethodGet, casePath(id, ""), nil, &out); err != nil {
		return nil, errors.Wrap(err, "get case", slog.Int64("case_id", id))
	}
	return out.Model(), nil
}

func (c *Client) FinalizeCase(ctx context.Context, id int64, identity models.CitizenIdentity) (*models.Case, error) {
	var out api.Case
	if err := c.do(ctx, http.MethodPut, casePath(id, "/finalize"), api.NewIdentityRequest(identity), &out); err != nil {
		return nil, errors.Wrap(err, "finalize case", slog.Int64("case_id", id))
	}
	return out.Model(), nil
}

func (c *Client) RegenerateDraft(ctx context.Context, id int64) (*models.Case, error) {
	var out api.Case
	if err := c.do(ctx, http.MethodPost, casePath(id, "/draft"), nil, &out); err != nil {
		return nil, errors.Wrap(err, "regenerate draft", slog.Int64("case_id", id))
	}
	return out.Model(), nil
}

// Healthy reports whether the server answers its health check.
func (c *Client) Healthy(ctx context.Context) error {
	var out api.Health
	if err := c.do(ctx, http.MethodGet, "/api/healthy", nil, &out); err != nil {
		return errors.Wrap(err, "health check")
	}
	if out.Status != "ok" {
		return errors.Wrap(ErrUnexpectedResponse, "health check", slog.String("status", out.Status))
	}
	return nil
}

// DownloadDocument writes the document ref to w and returns the number of bytes written.
func (c *Client) DownloadDocument(ctx context.Context, ref string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, api.DocumentsPath+ref, nil)
	if err != nil {
		return 0, errors.Wrap(err, "download document", slog.String("reference", ref))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Wrap(decodeFailure(resp), "download document", slog.String("reference", ref))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		return 0, errors.Wrap(ErrUnexpectedResponse, "download document", slog.String("content_type", ct))
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Wrap(err, "copy document", slog.String("reference", ref))
	}
	return n, nil
}

func casePath(id int64, suffix string) string {
	return "/api/v1/cases/" + strconv.FormatInt(id, 10) + suffix
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request", slog.String("method", method), slog.String("path", path),
			slog.Duration("elapsed", time.Since(start)))
	}
	return resp, nil
}

// do sends body as JSON and decodes a 2xx answer into out. Other answers are decoded as failures.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.Join(ErrUnexpectedResponse, err), "decode response",
			slog.Int("status", resp.StatusCode))
	}
	return nil
}

// decodeFailure reads the error envelope of resp. Answers without one, e.g. from a proxy, are reported with their
// status.
func decodeFailure(resp *http.Response) error {
	envelope := api.ErrorEnvelope{Error: new(failure.Failure), State: nil}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == nil || envelope.Error.Code == "" {
		return errors.Wrap(ErrUnexpectedResponse, "decode error response", slog.Int("status", resp.StatusCode))
	}
	return envelope.Error
}
