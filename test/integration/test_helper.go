package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

// baseURL points the suite at a running API server. The suite is skipped
// when it is not set.
var baseURL = os.Getenv("INTEGRATION_BASE_URL")

const testUser = "integration-test-user"

func TestMain(m *testing.M) {
	if baseURL != "" {
		// Give the service a moment to come up
		time.Sleep(2 * time.Second)
	}

	code := m.Run()
	os.Exit(code)
}

func skipWithoutServer(t *testing.T) {
	t.Helper()
	if baseURL == "" {
		t.Skip("INTEGRATION_BASE_URL not set, skipping integration tests")
	}
}

func doJSON(t *testing.T, method, path string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", testUser)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}
