package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// reply is a Roam response read to completion.
type reply struct {
	status   int
	location string
	body     []byte
}

func (r reply) redirected() bool {
	return r.status == http.StatusTemporaryRedirect || r.status == http.StatusPermanentRedirect
}

// postJSON sends payload to url with the token in both headers Roam checks.
func postJSON(ctx context.Context, hc *http.Client, url, token string, payload interface{}) (reply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return reply{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-authorization", "Bearer "+token)

	resp, err := hc.Do(req)
	if err != nil {
		return reply{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reply{}, fmt.Errorf("read response: %w", err)
	}
	return reply{status: resp.StatusCode, location: resp.Header.Get("Location"), body: body}, nil
}
