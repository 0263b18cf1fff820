package mcp

import (
	"context"
	"encoding/json"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// NewSDKServer публикует каталог через официальный MCP SDK,
// чтобы те же инструменты были доступны по stdio.
func NewSDKServer(catalog *Catalog, logger *zap.Logger) *gomcp.Server {
	server := gomcp.NewServer(&gomcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	for _, tool := range catalog.Tools() {
		server.AddTool(&gomcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema.asMap(),
		}, sdkHandler(catalog, tool.Name, logger))
	}
	return server
}

// ServeStdio обслуживает MCP-сессию на stdin/stdout до завершения ctx или закрытия потока.
func ServeStdio(ctx context.Context, catalog *Catalog, logger *zap.Logger) error {
	return NewSDKServer(catalog, logger).Run(ctx, &gomcp.StdioTransport{})
}

func sdkHandler(catalog *Catalog, name string, logger *zap.Logger) gomcp.ToolHandler {
	return func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		args := Args{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return toolError(&ValidationError{Field: "arguments", Reason: err.Error()}), nil
			}
		}

		text, err := catalog.Call(ctx, name, args)
		if err != nil {
			toolCallsTotal.WithLabelValues(name, "error").Inc()
			logger.Warn("Tool call failed", zap.String("tool", name), zap.Error(err))
			return toolError(err), nil
		}
		toolCallsTotal.WithLabelValues(name, "ok").Inc()
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
		}, nil
	}
}

func toolError(err error) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: err.Error()}},
	}
}

// asMap переводит схему в map, который SDK отдает клиентам как есть.
func (s InputSchema) asMap() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}
	return map[string]any{
		"type":       s.Type,
		"properties": props,
		"required":   s.Required,
	}
}

