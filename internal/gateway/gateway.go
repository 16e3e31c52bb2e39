// Package gateway is the single path every console request to the vault
// server takes. It collapses transport failures, parse failures, empty bodies
// and session loss into a nil result so callers only branch on "got a body
// or not".
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lovincyrus/vault-console/internal/session"
)

// Options describes one request. Header entries are merged over the default
// Accept header.
type Options struct {
	Method string
	Header http.Header
	Body   io.Reader
}

// Config wires a Gateway.
type Config struct {
	BaseURL string
	Client  *http.Client
	State   *session.State
	Logger  *slog.Logger
	// Aliases applied during normalization. Nil uses DefaultAliases.
	Aliases map[string]string
	// OnSessionLost runs after a 401 has locked State.
	OnSessionLost func()
	// OnFailure runs after a transport or parse failure has been logged.
	OnFailure func(path string, err error)
}

// Gateway issues requests against the vault API.
type Gateway struct {
	baseURL       string
	client        *http.Client
	state         *session.State
	logger        *slog.Logger
	aliases       map[string]string
	onSessionLost func()
	onFailure     func(path string, err error)
}

// New creates a gateway. A nil Client uses http.DefaultClient; a nil State
// gets a fresh one.
func New(cfg Config) *Gateway {
	g := &Gateway{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        cfg.Client,
		state:         cfg.State,
		logger:        cfg.Logger,
		aliases:       cfg.Aliases,
		onSessionLost: cfg.OnSessionLost,
		onFailure:     cfg.OnFailure,
	}
	if g.client == nil {
		g.client = http.DefaultClient
	}
	if g.state == nil {
		g.state = session.New()
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.aliases == nil {
		g.aliases = DefaultAliases
	}
	return g
}

// State returns the session state the gateway locks on 401.
func (g *Gateway) State() *session.State {
	return g.state
}

// URL resolves path against the base URL.
func (g *Gateway) URL(path string) string {
	return g.baseURL + path
}

// Call performs the request and returns the parsed, normalized body. It
// never returns an error: a nil result means the call produced nothing
// usable, whether because of a transport failure, a bad body, a 204, an empty
// body, or a 401. Only the 401 path changes the session state.
func (g *Gateway) Call(ctx context.Context, path string, opts Options) *Result {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, g.URL(path), opts.Body)
	if err != nil {
		g.fail(path, err)
		return nil
	}
	req.Header.Set("Accept", "application/json")
	for k, vals := range opts.Header {
		req.Header.Del(k)
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.fail(path, err)
		return nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		g.sessionLost(path)
		return nil
	case http.StatusNoContent:
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.fail(path, fmt.Errorf("reading body: %w", err))
		return nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		g.fail(path, fmt.Errorf("HTTP %d: parsing body: %w", resp.StatusCode, err))
		return nil
	}
	return &Result{Status: resp.StatusCode, value: Normalize(parsed, g.aliases)}
}

func (g *Gateway) sessionLost(path string) {
	g.state.Lock()
	g.logger.Info("session lost", "path", path)
	if g.onSessionLost != nil {
		g.onSessionLost()
	}
}

func (g *Gateway) fail(path string, err error) {
	if errors.Is(err, context.Canceled) {
		g.logger.Debug("api call canceled", "path", path)
	} else {
		g.logger.Error("api error", "path", path, "err", err)
	}
	if g.onFailure != nil {
		g.onFailure(path, err)
	}
}
