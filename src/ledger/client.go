package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/verdant-dao/carbon-claims/src/webclient"
	"golang.org/x/crypto/blake2b"
)

// Client is the collaborator that constructs, signs and dispatches
// marketplace actions and answers object queries. Transaction construction
// and signing live on the node side; this interface only names calls.
type Client interface {
	// GetObject reads the current state of a shared object.
	GetObject(ctx context.Context, objectID string) (Document, error)
	// Execute dispatches a call and returns the transaction digest once the
	// node accepts it.
	Execute(ctx context.Context, call Call) (string, error)
	// WaitForTransaction blocks until the transaction confirms and returns
	// its effects and events.
	WaitForTransaction(ctx context.Context, digest string) (*TxResult, error)
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// RPCClient talks JSON-RPC over HTTP to the ledger node.
type RPCClient struct {
	http   *http.Client
	url    string
	sender string
	nextID atomic.Uint64
}

func NewRPCClient(url, sender string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		http:   webclient.NewDefault(timeout),
		url:    url,
		sender: sender,
	}
}

func (c *RPCClient) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	req := rpcRequest{
		Jsonrpc: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	raw, err := webclient.PostJSON(ctx, c.http, c.url, req)
	if err != nil {
		return nil, &DispatchError{Op: method, Err: err}
	}
	var rsp rpcResponse
	if err := json.Unmarshal(raw, &rsp); err != nil {
		return nil, &DispatchError{Op: method, Err: err}
	}
	if rsp.Error != nil {
		return nil, &DispatchError{Op: method, Err: fmt.Errorf("rpc %d: %s", rsp.Error.Code, rsp.Error.Message)}
	}
	return rsp.Result, nil
}

func (c *RPCClient) GetObject(ctx context.Context, objectID string) (Document, error) {
	result, err := c.call(ctx, "ledger_getObject", objectID, map[string]any{
		"showContent": true,
		"showOwner":   true,
		"showType":    true,
	})
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(result, &doc); err != nil {
		return nil, &DispatchError{Op: "ledger_getObject", Err: err}
	}
	return doc, nil
}

func (c *RPCClient) Execute(ctx context.Context, call Call) (string, error) {
	result, err := c.call(ctx, "ledger_executeCall", map[string]any{
		"sender":      c.sender,
		"target":      call.Target,
		"args":        call.Args,
		"fingerprint": CallFingerprint(call),
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Digest string `json:"digest"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", &DispatchError{Op: "ledger_executeCall", Err: err}
	}
	if out.Digest == "" {
		return "", &DispatchError{Op: "ledger_executeCall", Err: fmt.Errorf("node returned no digest")}
	}
	return out.Digest, nil
}

func (c *RPCClient) WaitForTransaction(ctx context.Context, digest string) (*TxResult, error) {
	result, err := c.call(ctx, "ledger_waitForTransaction", digest, map[string]any{
		"showEvents":  true,
		"showEffects": true,
	})
	if err != nil {
		return nil, err
	}
	var res TxResult
	if err := json.Unmarshal(result, &res); err != nil {
		return nil, &DispatchError{Op: "ledger_waitForTransaction", Err: err}
	}
	if res.Digest == "" {
		res.Digest = digest
	}
	return &res, nil
}

// CallFingerprint hashes the canonical JSON form of a call. Receipts store it
// so a resubmitted action can be tied back to its first attempt.
func CallFingerprint(call Call) string {
	payload, err := json.Marshal(call)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
