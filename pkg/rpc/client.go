package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/utils"
)

// Client is a JSON client for the node API with a small token bucket so a
// relay fanning out many oracle responses cannot stampede the node.
type Client struct {
	base   string
	client *http.Client

	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time
}

// Opts is the set of options for a new Client.
type Opts struct {
	Base       string
	Timeout    time.Duration
	RPS        int
	Burst      int
	HTTPClient *http.Client
}

// NewWithOpts creates a new Client with the given options.
func NewWithOpts(o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	bases := utils.Dedup([]string{o.Base})
	c := &Client{
		base:        bases[0],
		client:      hc,
		tokens:      int64(o.Burst),
		maxTokens:   int64(o.Burst),
		refillEvery: time.Second / time.Duration(o.RPS),
	}
	c.lastRefill.Store(time.Now())
	return c
}

// NewFromEnv builds a Client against NODE_ADDR (default http://localhost:3000).
func NewFromEnv() *Client {
	return NewWithOpts(Opts{
		Base:    utils.Env("NODE_ADDR", "http://localhost:3000"),
		Timeout: utils.EnvDuration("NODE_TIMEOUT", 15*time.Second),
		RPS:     utils.EnvInt("NODE_RPS", 50),
		Burst:   utils.EnvInt("NODE_BURST", 100),
	})
}

func (c *Client) take(ctx context.Context) error {
	for {
		last := c.lastRefill.Load().(time.Time)
		elapsed := time.Since(last)
		if refill := int64(elapsed / c.refillEvery); refill > 0 {
			if c.lastRefill.CompareAndSwap(last, last.Add(time.Duration(refill)*c.refillEvery)) {
				for i := int64(0); i < refill; i++ {
					if atomic.LoadInt64(&c.tokens) >= c.maxTokens {
						break
					}
					atomic.AddInt64(&c.tokens, 1)
				}
			}
		}
		if atomic.AddInt64(&c.tokens, -1) >= 0 {
			return nil
		}
		atomic.AddInt64(&c.tokens, 1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.refillEvery):
		}
	}
}

// do performs one JSON round trip. A non-2xx response is returned as an
// error carrying the server's error string.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	if err := c.take(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// StatusError is a non-2xx node response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("node returned %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 node response.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Code == http.StatusNotFound
}

// MintToken obtains a bearer token for a participant from the dev token
// endpoint.
func (c *Client) MintToken(ctx context.Context, participant string) (string, error) {
	var out TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/token", "", TokenRequest{Participant: participant}, &out)
	return out.Token, err
}

// NominateAirline nominates (or votes for) an airline on behalf of the
// token's participant.
func (c *Client) NominateAirline(ctx context.Context, token, airline string) (NominateAirlineResponse, error) {
	var out NominateAirlineResponse
	err := c.do(ctx, http.MethodPost, "/airlines", token, NominateAirlineRequest{Airline: airline}, &out)
	return out, err
}

// FundAirline tops up the token's own airline funding.
func (c *Client) FundAirline(ctx context.Context, token, airline string, amount uint64) (uint64, error) {
	var out FundAirlineResponse
	err := c.do(ctx, http.MethodPost, "/airlines/"+airline+"/fund", token, FundAirlineRequest{Amount: amount}, &out)
	return out.Funds, err
}

// GetAirline reads an airline's registration and funding.
func (c *Client) GetAirline(ctx context.Context, airline string) (AirlineResponse, error) {
	var out AirlineResponse
	err := c.do(ctx, http.MethodGet, "/airlines/"+airline, "", nil, &out)
	return out, err
}

// RegisterFlight registers a flight for the token's airline.
func (c *Client) RegisterFlight(ctx context.Context, token string, flight FlightRef) error {
	return c.do(ctx, http.MethodPost, "/flights", token, flight, nil)
}

// RegisterOracle registers the token's participant as an oracle.
func (c *Client) RegisterOracle(ctx context.Context, token string, fee uint64) ([]uint8, error) {
	var out IndicesResponse
	err := c.do(ctx, http.MethodPost, "/oracles", token, RegisterOracleRequest{Fee: fee}, &out)
	return out.Indices, err
}

// OracleIndices fetches the token's assigned indices.
func (c *Client) OracleIndices(ctx context.Context, token string) ([]uint8, error) {
	var out IndicesResponse
	err := c.do(ctx, http.MethodGet, "/oracles/indices", token, nil, &out)
	return out.Indices, err
}

// RegistrationFee fetches the oracle registration fee.
func (c *Client) RegistrationFee(ctx context.Context) (uint64, error) {
	var out RegistrationFeeResponse
	err := c.do(ctx, http.MethodGet, "/fees/registration", "", nil, &out)
	return out.Fee, err
}

// Flights lists registered flights with their statuses.
func (c *Client) Flights(ctx context.Context, token string) ([]FlightResponse, error) {
	var out FlightsResponse
	err := c.do(ctx, http.MethodGet, "/flights", token, nil, &out)
	return out.Flights, err
}

// OpenRequest opens a status request for a flight.
func (c *Client) OpenRequest(ctx context.Context, token string, flight FlightRef) (uint8, error) {
	var out OpenRequestResponse
	err := c.do(ctx, http.MethodPost, "/requests", token, flight, &out)
	return out.Index, err
}

// SubmitResponse submits one oracle response.
func (c *Client) SubmitResponse(ctx context.Context, token string, in OracleResponseRequest) (bool, error) {
	var out OracleResponseResponse
	err := c.do(ctx, http.MethodPost, "/responses", token, in, &out)
	return out.Finalized, err
}
