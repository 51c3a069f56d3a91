package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"modulys-admin/internal/domain"
)

// API performs authenticated calls on behalf of one set of credentials.
type API struct {
	client *Client
	creds  Credentials
}

// call sends cl with the current credential and decodes a 2xx body into out.
// A 401 is handed to Credentials.OnUnauthorized before anything else and is
// never decoded.
func (a *API) call(ctx context.Context, cl call, out any) error {
	resp, err := a.open(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

// open sends cl and returns the response only when it is a 2xx. The caller
// owns the body.
func (a *API) open(ctx context.Context, cl call) (*http.Response, error) {
	cl.token = a.creds.Credential()

	resp, err := a.client.send(ctx, cl)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, a.unauthorized(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

func (a *API) unauthorized(ctx context.Context) error {
	cause := &domain.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	if err := a.creds.OnUnauthorized(ctx, cause); errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnauthorized, cause)
}
