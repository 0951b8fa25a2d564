package mcptools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("bitpad.mcp")
}

// NewServer creates an MCP server exposing every tool and resource in reg.
func NewServer(reg *Registry, version string) *server.MCPServer {
	srv := server.NewMCPServer("bitpad", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	register(srv, reg)
	return srv
}

// Handler serves srv over the streamable HTTP transport.
func Handler(srv *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(srv)
}

func register(srv *server.MCPServer, reg *Registry) {
	for _, tool := range reg.Tools() {
		tool := tool
		srv.AddTool(
			mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.InputSchema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				params, err := json.Marshal(req.Params.Arguments)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := tool.Handler(params)
				if err != nil {
					logger().Debugf("tool %s: %s", tool.Name, err)
					return mcp.NewToolResultError(err.Error()), nil
				}
				data, err := json.Marshal(result)
				if err != nil {
					return nil, err
				}
				return mcp.NewToolResultText(string(data)), nil
			},
		)
	}

	for _, resource := range reg.Resources() {
		resource := resource
		srv.AddResourceTemplate(
			mcp.NewResourceTemplate(resource.URI, resource.Name,
				mcp.WithTemplateDescription(resource.Description),
				mcp.WithTemplateMIMEType(resource.MimeType),
			),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				text, err := resource.Handler(req.Params.URI)
				if err != nil {
					return nil, err
				}
				return []mcp.ResourceContents{
					mcp.TextResourceContents{
						URI:      req.Params.URI,
						MIMEType: resource.MimeType,
						Text:     text,
					},
				}, nil
			},
		)
	}
}
