// Package modeling is the HTTP client for the remote modeling service that
// computes electrification plans and cluster scores.
package modeling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/scenario"
)

// DefaultTimeout bounds one model run round trip. National plan runs are the
// slow path; the service streams nothing, so the whole result must land
// within this window.
const DefaultTimeout = 2 * time.Minute

// Client calls the modeling service over HTTP/JSON. It satisfies
// explore.ModelRunner.
type Client struct {
	base string
	http *http.Client
	log  logging.Logger
}

// NewClient builds a modeling client for the given base URL, e.g.
// "http://modeling:8080". A non-positive timeout selects the default.
func NewClient(base string, timeout time.Duration, log logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// runRequest is the wire shape of one run invocation. Single parameters
// travel as a bare number, ranges as a [lo, hi] pair.
type runRequest struct {
	Country     string                     `json:"country"`
	Dynamic     bool                       `json:"dynamic,omitempty"`
	MultiFactor bool                       `json:"multi_factor,omitempty"`
	Params      map[string]json.RawMessage `json:"params"`
	Village     *model.FeatureCollection   `json:"village,omitempty"`
}

// Run posts the scenario's parameter state to /run/{key} and decodes the
// result. The context governs cancellation alongside the client timeout.
func (c *Client) Run(ctx context.Context, key scenario.Key, st *scenario.State) (*model.RunResult, error) {
	payload, err := encodeRequest(st)
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}

	url := fmt.Sprintf("%s/run/%s", c.base, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model run request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model run returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result model.RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode run result: %w", err)
	}

	c.log.Info(ctx, "model run completed",
		logging.String("scenario", string(key)),
		logging.String("country", st.Country),
		logging.Float64("seconds", time.Since(start).Seconds()),
	)
	return &result, nil
}

func encodeRequest(st *scenario.State) ([]byte, error) {
	params := make(map[string]json.RawMessage)
	for name, v := range st.Parameters() {
		var encoded []byte
		var err error
		switch v.Kind {
		case scenario.KindRange:
			encoded, err = json.Marshal([2]float64{v.Lo, v.Hi})
		default:
			encoded, err = json.Marshal(v.Scalar)
		}
		if err != nil {
			return nil, err
		}
		params[name] = encoded
	}
	return json.Marshal(runRequest{
		Country:     st.Country,
		Dynamic:     st.Dynamic,
		MultiFactor: st.MultiFactor,
		Params:      params,
		Village:     st.Village,
	})
}
