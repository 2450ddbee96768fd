package scheduler

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sony/gobreaker"
)

var (
	// ErrMalformedResponse means the scheduler answered with a body that does
	// not match the contract. Nothing from such a response may be applied.
	ErrMalformedResponse = errors.New("malformed scheduler response")
	// ErrRemoteStatus is returned for any non-200 answer.
	ErrRemoteStatus = errors.New("scheduler returned unexpected status")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("scheduler circuit open")
)

//go:embed response.schema.json
var responseSchemaJSON string

const maxResponseBytes = 8 << 20

// RetryConfig configures exponential backoff for transient failures.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient       *http.Client
	Timeout          time.Duration
	Retry            RetryConfig
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *slog.Logger
}

// Client calls the remote time-boxed scheduler.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
	schema  *jsonschema.Schema
	log     *slog.Logger
}

// NewClient returns a client posting to baseURL + "/optimize".
func NewClient(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("scheduler url is empty")
	}
	schema, err := jsonschema.CompileString("https://wmsopt.dev/schemas/scheduler.response", responseSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile scheduler response schema: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	retry := opts.Retry
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = 200 * time.Millisecond
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = 5 * time.Second
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	c := &Client{
		url:    strings.TrimRight(baseURL, "/") + "/optimize",
		http:   hc,
		retry:  retry,
		schema: schema,
		log:    log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scheduler",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation and 4xx are not scheduler outages.
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, errClientStatus)
		},
	})
	return c, nil
}

// errClientStatus marks 4xx answers, which are never retried.
var errClientStatus = errors.New("client error")

// Optimize sends one request. Transport errors and 5xx answers are retried
// with backoff; a non-200 answer that survives retries yields ErrRemoteStatus
// and an invalid body yields ErrMalformedResponse without retry.
func (c *Client) Optimize(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scheduler request: %w", err)
	}

	var resp *Response
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.send(ctx, body)
		})
		if err != nil {
			switch {
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrCircuitOpen, err))
			case errors.Is(err, ErrMalformedResponse), errors.Is(err, errClientStatus), ctx.Err() != nil:
				return backoff.Permanent(err)
			}
			c.log.Warn("scheduler call failed, retrying", "error", err)
			return err
		}
		resp = result.(*Response)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval
	policy.MaxElapsedTime = 0
	var b backoff.BackOff = backoff.WithMaxRetries(policy, c.retry.MaxRetries)

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	fillNames(req, resp)
	return resp, nil
}

func (c *Client) send(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read scheduler response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %d (%w)", ErrRemoteStatus, httpResp.StatusCode, errClientStatus)
		}
		return nil, fmt.Errorf("%w: %d", ErrRemoteStatus, httpResp.StatusCode)
	}
	return c.decode(raw)
}

// decode validates raw against the contract before building a Response.
func (c *Client) decode(raw []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i, a := range resp.Assignments {
		if a.End.Before(a.Start.Time) {
			return nil, fmt.Errorf("%w: assignment %d ends before it starts", ErrMalformedResponse, i)
		}
	}
	if resp.UnassignedTasks == nil {
		resp.UnassignedTasks = []UnassignedTask{}
	}
	return &resp, nil
}
