package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	skipWithoutServer(t)

	resp, body := doJSON(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}

func TestConfigLifecycle(t *testing.T) {
	skipWithoutServer(t)

	payload := map[string]interface{}{
		"contract_address":   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"wallet_address":     "0x47ac0Fb4F2D84898e4D9E7b4DaB3C24507a6D503",
		"network":            "ETH",
		"dex_version":        "auto",
		"trade_interval":     "10min",
		"trade_amount_usd":   "25",
		"max_gas_ratio":      "0.5",
		"slippage_tolerance": "1",
	}

	resp, body := doJSON(t, http.MethodPost, "/trade-config", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create config: expected 201, got %d: %s", resp.StatusCode, body)
	}

	var created struct {
		ID       uint   `json:"id"`
		Network  string `json:"network"`
		IsActive bool   `json:"is_active"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created config: %v", err)
	}
	if !created.IsActive {
		t.Fatal("new config should be active")
	}

	// The round trip: the config we just saved is the network's active one.
	resp, body = doJSON(t, http.MethodGet, "/trade-config/active?network=ETH", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get active config: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var active struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(body, &active); err != nil {
		t.Fatalf("decode active config: %v", err)
	}
	if active.ID != created.ID {
		t.Fatalf("active config mismatch: created %d, active %d", created.ID, active.ID)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	skipWithoutServer(t)

	payload := map[string]interface{}{
		"contract_address":   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"wallet_address":     "0x47ac0Fb4F2D84898e4D9E7b4DaB3C24507a6D503",
		"network":            "ETH",
		"trade_interval":     "2min",
		"trade_amount_usd":   "25",
		"max_gas_ratio":      "0.5",
		"slippage_tolerance": "1",
	}

	resp, body := doJSON(t, http.MethodPost, "/trade-config", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown interval, got %d: %s", resp.StatusCode, body)
	}
}

func TestBotStatusesAndStopIdempotence(t *testing.T) {
	skipWithoutServer(t)

	resp, body := doJSON(t, http.MethodGet, "/bot/statuses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statuses: expected 200, got %d: %s", resp.StatusCode, body)
	}

	// Stopping a bot that is not running is a no-op.
	for i := 0; i < 2; i++ {
		resp, body = doJSON(t, http.MethodPost, "/bot/stop", map[string]string{"network": "ETH"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("stop: expected 200, got %d: %s", resp.StatusCode, body)
		}
	}
}

func TestNetworkStatsCoverAllNetworks(t *testing.T) {
	skipWithoutServer(t)

	resp, body := doJSON(t, http.MethodGet, "/trades/network-stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("network stats: expected 200, got %d: %s", resp.StatusCode, body)
	}

	var stats []struct {
		Network string `json:"network"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if len(stats) != 4 {
		t.Fatalf("expected stats for all 4 networks, got %d", len(stats))
	}
}
