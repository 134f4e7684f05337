package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devblac/tx-sentinel/internal/config"
	"github.com/spf13/cobra"
)

const defaultHTTPTimeout = 8 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and ping network data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Fprintf(out, "config OK (version %d, %d network(s))\n", cfg.Version, len(cfg.Networks))

		client := &http.Client{Timeout: defaultHTTPTimeout}
		failures := 0

		for _, n := range cfg.Networks {
			switch strings.ToLower(n.Type) {
			case "evm":
				chainID, err := pingEVM(cmd.Context(), client, n.RPCURL)
				if err != nil {
					failures++
					fmt.Fprintf(out, "- network %s (evm): ERROR %v\n", n.ID, err)
					continue
				}
				fmt.Fprintf(out, "- network %s (evm): chainId %s OK\n", n.ID, chainID)
			case "algorand":
				algodVer, algodErr := pingAlgod(cmd.Context(), client, n.AlgodURL)
				indexerRound, indexerErr := pingIndexer(cmd.Context(), client, n.IndexerURL)

				if algodErr != nil || indexerErr != nil {
					failures++
					fmt.Fprintf(out, "- network %s (algorand): algod error=%v indexer error=%v\n", n.ID, algodErr, indexerErr)
					continue
				}
				fmt.Fprintf(out, "- network %s (algorand): algod %s, indexer round %d OK\n", n.ID, algodVer, indexerRound)
			default:
				failures++
				fmt.Fprintf(out, "- network %s: unsupported type %s\n", n.ID, n.Type)
			}
		}

		if failures > 0 {
			return fmt.Errorf("validate: %d network(s) failed connectivity", failures)
		}

		fmt.Fprintln(out, "validate: success")
		return nil
	},
}

func pingEVM(ctx context.Context, client *http.Client, url string) (string, error) {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_chainId",
		"params":  []any{},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call eth_chainId: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}
	if rpcResp.Result == "" {
		return "", fmt.Errorf("empty chainId result")
	}

	return rpcResp.Result, nil
}

func pingAlgod(ctx context.Context, client *http.Client, baseURL string) (string, error) {
	url := strings.TrimRight(baseURL, "/") + "/versions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call versions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		Versions []string `json:"versions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(body.Versions) == 0 {
		return "unknown", nil
	}
	return body.Versions[0], nil
}

func pingIndexer(ctx context.Context, client *http.Client, baseURL string) (uint64, error) {
	url := strings.TrimRight(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		Round uint64 `json:"round"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return body.Round, nil
}
