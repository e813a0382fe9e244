package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/etnz/macro"
)

// maxErrorBody is the size of the response body kept in a StatusError.
const maxErrorBody = 1024

// StatusError reports a non 2xx response.
//
// It unwraps to macro.ErrAuth for 401 and 403, and to macro.ErrNetwork otherwise.
type StatusError struct {
	Host, Path string // the query is left out, it holds API keys
	Status     string
	Code       int
	Body       []byte // beginning of the response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http %v%v: %v", e.Host, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return macro.ErrAuth
	}
	return macro.ErrNetwork
}

// Get performs the request and returns the response body.
//
// Transport failures wrap macro.ErrNetwork; non 2xx responses are returned as
// a *StatusError.
func Get(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	return do(client, req)
}

// GetJSON performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
func GetJSON(ctx context.Context, client *http.Client, addr string, data any) error {
	body, err := Get(ctx, client, addr)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

// PostJSON sends payload as a JSON body and unmarshals the JSON response body
// into data.
func PostJSON(ctx context.Context, client *http.Client, addr string, payload, data any) error {
	content, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := do(client, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			// url.Error prints the full url, api keys included.
			ue.URL = req.URL.Host + req.URL.Path
		}
		return nil, fmt.Errorf("%w: %w", macro.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Host:   req.URL.Host,
			Path:   req.URL.Path,
			Status: resp.Status,
			Code:   resp.StatusCode,
			Body:   body,
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read response body: %w", macro.ErrNetwork, err)
	}
	return body, nil
}
