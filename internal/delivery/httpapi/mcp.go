package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

const (
	mcpProtocolVersion = "2024-11-05"
	mcpServerName      = "shvark-market"
	mcpServerVersion   = "1.0.0"
)

// JSON-RPC 2.0 error codes. -32001..-32029 are server defined.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeRateLimited    = -32029
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// notification: a request without an id gets no response.
func (r *rpcRequest) notification() bool {
	return len(r.ID) == 0
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

var nullID = json.RawMessage("null")

func errorResponse(id json.RawMessage, code int, msg string) *rpcResponse {
	if len(id) == 0 {
		id = nullID
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

// rpcErrorFor maps domain errors onto JSON-RPC codes. Business rule
// violations are reported as invalid params with the domain message.
func rpcErrorFor(err error) *rpcError {
	var re *rpcError
	switch {
	case errors.As(err, &re):
		return re
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, domain.ErrRateLimited):
		return &rpcError{Code: codeRateLimited, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return &rpcError{Code: codeNotFound, Message: err.Error()}
	case statusFor(err) < http.StatusInternalServerError:
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &rpcError{Code: codeInternal, Message: "internal error"}
	}
}

// mcpCaller is the lazily authenticated caller of one HTTP request; a batch
// is charged to the rate limit once.
type mcpCaller struct {
	principal *domain.Principal
	err       error
}

// mcp serves POST /functions/v1/mcp.
func (h *Handler) mcp(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse(nil, codeParseError, "failed to read body"))
		return
	}

	var caller *mcpCaller
	authenticate := func() *mcpCaller {
		if caller == nil {
			p, err := h.authenticate(r)
			caller = &mcpCaller{principal: p, err: err}
		}
		return caller
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			writeJSON(w, http.StatusOK, errorResponse(nil, codeParseError, "parse error"))
			return
		}
		if len(batch) == 0 {
			writeJSON(w, http.StatusOK, errorResponse(nil, codeInvalidRequest, "empty batch"))
			return
		}
		responses := make([]*rpcResponse, 0, len(batch))
		for _, raw := range batch {
			if resp := h.serveRPC(r.Context(), raw, authenticate); resp != nil {
				responses = append(responses, resp)
			}
		}
		if len(responses) == 0 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, responses)
		return
	}

	resp := h.serveRPC(r.Context(), trimmed, authenticate)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// serveRPC handles one envelope; nil means a notification.
func (h *Handler) serveRPC(ctx context.Context, raw []byte, authenticate func() *mcpCaller) *rpcResponse {
	var req rpcRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || len(raw) == 0 {
			return errorResponse(nil, codeParseError, "parse error")
		}
		return errorResponse(nil, codeInvalidRequest, "invalid request")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "invalid request")
	}

	start := time.Now()
	result, err := h.dispatch(ctx, &req, authenticate)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.RecordMCPCall(h.methodLabel(req.Method), outcome, time.Since(start).Seconds())

	if req.notification() {
		return nil
	}
	if err != nil {
		rerr := rpcErrorFor(err)
		if rerr.Code == codeInternal {
			h.logger.Error("mcp call failed", "method", req.Method, "error", err)
		}
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rerr}
	}
	return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// methodLabel keeps the metrics label set bounded.
func (h *Handler) methodLabel(method string) string {
	switch method {
	case "initialize", "notifications/initialized", "ping", "tools/list", "tools/call":
		return method
	}
	if _, ok := h.tools[method]; ok {
		return method
	}
	return "unknown"
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolCallResult struct {
	Content           []toolContent `json:"content"`
	StructuredContent interface{}   `json:"structuredContent,omitempty"`
	IsError           bool          `json:"isError,omitempty"`
}

func (h *Handler) dispatch(ctx context.Context, req *rpcRequest, authenticate func() *mcpCaller) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return map[string]interface{}{
			"protocolVersion": mcpProtocolVersion,
			"serverInfo":      map[string]string{"name": mcpServerName, "version": mcpServerVersion},
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
		}, nil
	case "notifications/initialized", "ping":
		return struct{}{}, nil
	case "tools/list":
		return map[string]interface{}{"tools": h.toolDescriptors()}, nil
	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(orEmptyObject(req.Params), &params); err != nil || params.Name == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "tools/call needs a tool name"}
		}
		result, err := h.callTool(ctx, params.Name, params.Arguments, authenticate)
		if err != nil {
			return nil, err
		}
		text, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return &toolCallResult{
			Content:           []toolContent{{Type: "text", Text: string(text)}},
			StructuredContent: result,
		}, nil
	}

	if _, ok := h.tools[req.Method]; ok {
		return h.callTool(ctx, req.Method, req.Params, authenticate)
	}
	return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
}

func (h *Handler) callTool(ctx context.Context, name string, args json.RawMessage, authenticate func() *mcpCaller) (interface{}, error) {
	tool, ok := h.tools[name]
	if !ok {
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
	}

	caller := authenticate()
	if caller.err != nil {
		return nil, caller.err
	}
	if !allows(caller.principal, tool.Scope) {
		return nil, fmt.Errorf("%w: api key lacks %q scope", domain.ErrForbidden, tool.Scope)
	}

	ctx = domain.WithPrincipal(ctx, caller.principal)
	return tool.call(ctx, caller.principal, orEmptyObject(args))
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullID) {
		return json.RawMessage("{}")
	}
	return trimmed
}

// mcpREST serves the REST mirrors POST /functions/v1/mcp/{tool}: same
// arguments as the JSON-RPC tool, plain HTTP status codes.
func (h *Handler) mcpREST(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")
	if _, ok := h.tools[name]; !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("tool %q not found", name)})
		return
	}

	args, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: failed to read body", domain.ErrInvalidInput))
		return
	}

	start := time.Now()
	result, err := h.callTool(r.Context(), name, args, func() *mcpCaller {
		p, err := h.authenticate(r)
		return &mcpCaller{principal: p, err: err}
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.RecordMCPCall("rest/"+name, outcome, time.Since(start).Seconds())

	if err != nil {
		var re *rpcError
		if errors.As(err, &re) {
			err = fmt.Errorf("%w: %s", domain.ErrInvalidInput, re.Message)
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
