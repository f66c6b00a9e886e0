package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) RegisterClient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/clients", "", wire.RegisterClientRequest{ID: id}, nil)
}

func (c *HTTPClient) CreateAccount(ctx context.Context, req wire.CreateAccountRequest) (string, error) {
	var resp wire.CreatedResponse
	if err := c.do(ctx, http.MethodPost, "/accounts", "", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context, token string) ([]wire.Account, error) {
	var resp wire.AccountsResponse
	if err := c.do(ctx, http.MethodGet, "/accounts", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *HTTPClient) AuthToken(ctx context.Context, accountID, password, token string) (string, error) {
	var resp wire.AuthTokenResponse
	path := "/accounts/" + url.PathEscape(accountID) + "/authToken"
	if err := c.do(ctx, http.MethodPost, path, token, wire.AuthTokenRequest{Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) Pull(ctx context.Context, accountID string, since int64, token string) ([]wire.Change, error) {
	var resp wire.ChangesResponse
	path := "/accounts/" + url.PathEscape(accountID) + "/changes?since=" + strconv.FormatInt(since, 10)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Changes, nil
}

func (c *HTTPClient) Push(ctx context.Context, accountID string, changes []wire.Change, token string) ([]wire.Change, error) {
	var resp wire.ChangesResponse
	path := "/accounts/" + url.PathEscape(accountID) + "/changes"
	if err := c.do(ctx, http.MethodPost, path, token, wire.PushChangesRequest{Changes: changes}, &resp); err != nil {
		return nil, err
	}
	return resp.Changes, nil
}

func (c *HTTPClient) Export(ctx context.Context, accountID, token string) (*wire.ExportResponse, error) {
	var resp wire.ExportResponse
	path := "/accounts/" + url.PathEscape(accountID) + "/exports"
	if err := c.do(ctx, http.MethodPost, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends body as JSON and decodes a 2xx response into out. Transport
// failures become ErrUnavailable; error statuses are mapped to the package
// sentinels with the server's reason attached.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var e wire.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		e.Error = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = common.ErrorValidation
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusServiceUnavailable:
		sentinel = ErrUnavailable
	default:
		sentinel = errors.New("server error")
	}
	return fmt.Errorf("%w: %s", sentinel, e.Error)
}
