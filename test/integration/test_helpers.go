//go:build integration

// functions that are useful in integration tests

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"
)

// postJSON sends body as JSON and decodes the response into dst; it returns the status code
func postJSON(t *testing.T, url string, body any, dst any) int {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	if dst != nil {
		if err := json.Unmarshal(respBody, dst); err != nil {
			t.Fatalf("failed to decode response %q: %v", respBody, err)
		}
	}
	return resp.StatusCode
}
