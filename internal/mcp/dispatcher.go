package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	JSONRPCVersion  = "2.0"
	ProtocolVersion = "2024-11-05"
	ServerName      = "sasselerator"
	ServerVersion   = "1.0.0"
	ServerDesc      = "MCP server for Sasselerator - SaaS planning tool"

	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603

	maxBatchConcurrency = 8
)

// ErrParse - тело запроса не является JSON-объектом или массивом.
var ErrParse = errors.New("Parse error")

// Request - входящий JSON-RPC кадр.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError - ошибка уровня протокола.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response содержит ровно одно из Result и Error. Отсутствующий id кодируется как null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// ParseErrorResponse - ответ на неразбираемое тело запроса.
func ParseErrorResponse() Response {
	return Response{
		JSONRPC: JSONRPCVersion,
		Error:   &RPCError{Code: CodeParseError, Message: ErrParse.Error()},
	}
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type capabilities struct {
	Tools struct{} `json:"tools"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type callToolParams struct {
	Name      string `json:"name"`
	Arguments Args   `json:"arguments"`
}

// TextContent - элемент содержимого результата инструмента.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult - конверт результата tools/call.
type CallToolResult struct {
	Content []TextContent `json:"content"`
}

// DiscoveryInfo - ответ на GET по адресу RPC.
type DiscoveryInfo struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	Description     string        `json:"description"`
	Protocol        string        `json:"protocol"`
	ProtocolVersion string        `json:"protocolVersion"`
	Capabilities    capabilities  `json:"capabilities"`
	Tools           []ToolSummary `json:"tools"`
}

// Dispatcher обрабатывает JSON-RPC запросы без сохранения состояния между ними.
type Dispatcher struct {
	catalog *Catalog
	logger  *zap.Logger
}

func NewDispatcher(catalog *Catalog, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{catalog: catalog, logger: logger.Named("MCPDispatcher")}
}

// Discovery описывает сервер и его инструменты.
func (d *Dispatcher) Discovery() DiscoveryInfo {
	return DiscoveryInfo{
		Name:            ServerName,
		Version:         ServerVersion,
		Description:     ServerDesc,
		Protocol:        "mcp",
		ProtocolVersion: ProtocolVersion,
		Tools:           d.catalog.Summaries(),
	}
}

// HandlePayload разбирает тело запроса и возвращает Response или []Response
// той же формы. Если тело не разбирается, возвращается ErrParse.
func (d *Dispatcher) HandlePayload(ctx context.Context, body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var frames []json.RawMessage
		if err := json.Unmarshal(trimmed, &frames); err != nil {
			return nil, ErrParse
		}
		return d.handleBatch(ctx, frames), nil
	}

	req, err := decodeRequest(trimmed)
	if err != nil {
		return nil, err
	}
	return d.Handle(ctx, req), nil
}

// decodeRequest разбирает один кадр. null и скаляры - ошибка разбора.
func decodeRequest(frame []byte) (Request, error) {
	var req Request
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || frame[0] != '{' {
		return req, ErrParse
	}
	if err := json.Unmarshal(frame, &req); err != nil {
		return req, ErrParse
	}
	return req, nil
}

// handleBatch обрабатывает элементы параллельно, сохраняя порядок ответов.
func (d *Dispatcher) handleBatch(ctx context.Context, frames []json.RawMessage) []Response {
	responses := make([]Response, len(frames))
	var g errgroup.Group
	g.SetLimit(maxBatchConcurrency)
	for i, frame := range frames {
		g.Go(func() error {
			req, err := decodeRequest(frame)
			if err != nil {
				responses[i] = ParseErrorResponse()
				return nil
			}
			responses[i] = d.Handle(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return responses
}

// Handle выполняет один запрос.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	resp := Response{JSONRPC: JSONRPCVersion, ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      serverInfo{Name: ServerName, Version: ServerVersion},
		}
	case "tools/list":
		resp.Result = toolsListResult{Tools: d.catalog.Tools()}
	case "tools/call":
		result, err := d.callTool(ctx, req.Params)
		if err != nil {
			d.logger.Warn("Tool call failed", zap.ByteString("id", req.ID), zap.Error(err))
			resp.Error = &RPCError{Code: CodeInternalError, Message: err.Error()}
		} else {
			resp.Result = result
		}
	case "notifications/initialized", "ping":
		resp.Result = struct{}{}
	default:
		resp.Error = &RPCError{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	}

	status := "ok"
	if resp.Error != nil {
		status = strconv.Itoa(resp.Error.Code)
	}
	rpcRequestsTotal.WithLabelValues(methodLabel(req.Method), status).Inc()
	return resp
}

func (d *Dispatcher) callTool(ctx context.Context, rawParams json.RawMessage) (*CallToolResult, error) {
	var params callToolParams
	if len(rawParams) > 0 && !bytes.Equal(rawParams, []byte("null")) {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, &ValidationError{Field: "params", Reason: err.Error()}
		}
	}

	text, err := d.catalog.Call(ctx, params.Name, params.Arguments)
	var unknown *UnknownToolError
	switch {
	case errors.As(err, &unknown):
		toolCallsTotal.WithLabelValues("unknown", "unknown_tool").Inc()
		return nil, err
	case err != nil:
		toolCallsTotal.WithLabelValues(params.Name, "error").Inc()
		return nil, err
	}
	toolCallsTotal.WithLabelValues(params.Name, "ok").Inc()
	return &CallToolResult{Content: []TextContent{{Type: "text", Text: text}}}, nil
}

// methodLabel ограничивает кардинальность метки method.
func methodLabel(method string) string {
	switch method {
	case "initialize", "tools/list", "tools/call", "notifications/initialized", "ping":
		return method
	}
	return "other"
}
