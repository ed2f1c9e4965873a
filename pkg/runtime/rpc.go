package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/constants"
)

// RPCClient reads balances and token account state over Solana JSON-RPC.
// It implements BalanceReader and AccountInspector; instruction dispatch and
// transfers need a signer and are wired separately.
type RPCClient struct {
	endpoints []string
	client    *http.Client
}

// NewRPCClient creates an RPC-backed reader over the given endpoints.
func NewRPCClient(endpoints []string) *RPCClient {
	return &RPCClient{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: constants.RPCCallTimeout,
		},
	}
}

var (
	_ BalanceReader    = (*RPCClient)(nil)
	_ AccountInspector = (*RPCClient)(nil)
)

// LamportBalance implements BalanceReader.
func (r *RPCClient) LamportBalance(account solana.PublicKey) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	err := r.call("getBalance", []interface{}{account.String()}, &result)
	if err != nil {
		return 0, err
	}
	return result.Value, nil
}

// TokenBalance implements BalanceReader.
func (r *RPCClient) TokenBalance(account solana.PublicKey) (uint64, error) {
	var result struct {
		Value struct {
			Amount string `json:"amount"`
		} `json:"value"`
	}
	err := r.call("getTokenAccountBalance", []interface{}{account.String()}, &result)
	if err != nil {
		return 0, err
	}
	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// TokenAccount implements AccountInspector. The account is fetched with
// jsonParsed encoding so the SPL token layout is decoded server side.
func (r *RPCClient) TokenAccount(account solana.PublicKey) (*TokenAccountInfo, error) {
	var result struct {
		Value *struct {
			Data struct {
				Parsed *parsedAccountData `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	}
	err := r.call("getAccountInfo", []interface{}{
		account.String(),
		map[string]interface{}{"encoding": "jsonParsed"},
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("account %s not found", account)
	}
	parsed := result.Value.Data.Parsed
	if parsed == nil || parsed.Type != "account" {
		return nil, fmt.Errorf("account %s is not a token account", account)
	}

	mint, err := solana.PublicKeyFromBase58(parsed.Info.Mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint in account %s: %w", account, err)
	}
	owner, err := solana.PublicKeyFromBase58(parsed.Info.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner in account %s: %w", account, err)
	}
	amount, err := strconv.ParseUint(parsed.Info.TokenAmount.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token amount in account %s: %w", account, err)
	}

	return &TokenAccountInfo{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
	}, nil
}

// IsHealthy performs a health check on a single RPC endpoint.
func (r *RPCClient) IsHealthy(endpoint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var result string
	err := r.callEndpoint(ctx, endpoint, "getHealth", []interface{}{}, &result)
	return err == nil && result == "ok"
}

// call retries across endpoints with exponential backoff, starting at a
// random position for load balancing.
func (r *RPCClient) call(method string, params []interface{}, result interface{}) error {
	if len(r.endpoints) == 0 {
		return fmt.Errorf("no RPC endpoints configured")
	}

	startIdx := rand.Intn(len(r.endpoints))
	initialDelay := constants.DelayBetweenRPCCalls
	var lastErr error

	for attempt := 0; attempt < constants.MaxRPCRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*constants.DelayBetweenRPCCalls+initialDelay) * time.Millisecond
			time.Sleep(delay)
		}

		endpoint := r.endpoints[(startIdx+attempt)%len(r.endpoints)]

		ctx, cancel := context.WithTimeout(context.Background(), constants.RPCCallTimeout)
		err := r.callEndpoint(ctx, endpoint, method, params, result)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("all RPC endpoints failed for %s after %d attempts: %w", method, constants.MaxRPCRetries, lastErr)
}

// callEndpoint performs a single JSON-RPC call against one endpoint.
func (r *RPCClient) callEndpoint(ctx context.Context, endpoint, method string, params []interface{}, result interface{}) error {
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("RPC error: %s", rpcResp.Error.Message)
	}

	if rpcResp.Result == nil {
		return fmt.Errorf("empty result for %s", method)
	}

	return json.Unmarshal(rpcResp.Result, result)
}

// jsonrpcRequest represents a JSON-RPC request
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// jsonrpcResponse represents a JSON-RPC response
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

// jsonrpcError represents a JSON-RPC error
type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// parsedAccountData is the jsonParsed rendering of an SPL token account.
type parsedAccountData struct {
	Type string `json:"type"`
	Info struct {
		Mint        string `json:"mint"`
		Owner       string `json:"owner"`
		TokenAmount struct {
			Amount string `json:"amount"`
		} `json:"tokenAmount"`
	} `json:"info"`
}
