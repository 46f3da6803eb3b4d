package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		decimals int32
		expected string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.000001", 6, "1"},
		{"42", 0, "42"},
	}

	for _, tt := range tests {
		units, err := toBaseUnits(tt.amount, tt.decimals)
		require.NoError(t, err)
		require.Equal(t, tt.expected, units)
		require.Equal(t, tt.amount, fromBaseUnits(units, tt.decimals))
	}

	for _, amount := range []string{"0", "-1", "abc", "0.0000001"} {
		_, err := toBaseUnits(amount, 6)
		require.Error(t, err, amount)
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	merged := merge(
		map[string]string{"rpcserver": "localhost:9945", "account": "a"},
		map[string]string{"account": "b"},
	)
	require.Equal(t, map[string]string{"rpcserver": "localhost:9945", "account": "b"}, merged)
}

func TestClient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/tokens":
			//nolint
			json.NewEncoder(w).Encode([]tokenInfo{
				{Address: "0x00000000000000000000000000000000000000b1", Symbol: "USDC", Decimals: 6},
			})
		case "/v1/orders/1/cancel":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "0x00000000000000000000000000000000000000a1", body["from"])
			w.WriteHeader(http.StatusForbidden)
			//nolint
			w.Write([]byte(`{"error":"caller is not the order creator","code":"NotOrderCreator"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newClient(strings.TrimPrefix(server.URL, "http://"))

	amount, err := parseAmount(c, "0x00000000000000000000000000000000000000B1", "2.5")
	require.NoError(t, err)
	require.Equal(t, "2500000", amount)

	amount, err = parseAmount(c, "", "1")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", amount)

	_, err = parseAmount(c, "0x00000000000000000000000000000000000000b2", "1")
	require.Error(t, err)

	err = c.post("/v1/orders/1/cancel", map[string]string{
		"from": "0x00000000000000000000000000000000000000a1",
	}, nil)
	var daemonErr *daemonError
	require.ErrorAs(t, err, &daemonErr)
	require.Equal(t, http.StatusForbidden, daemonErr.Status)
	require.Equal(t, "NotOrderCreator", daemonErr.Code)

	err = c.get("/v1/unknown", nil)
	require.ErrorAs(t, err, &daemonErr)
	require.Equal(t, http.StatusNotFound, daemonErr.Status)
}
