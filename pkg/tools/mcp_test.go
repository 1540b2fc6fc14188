package tools

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestDispatchHandlerReturnsPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(context.Background(), &stubTool{name: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	handler := dispatchHandler(registry, "echo")

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"argument": "SF123456789CN"}

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty content")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok || !strings.Contains(tc.Text, "SF123456789CN") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDispatchHandlerReportsToolFailure(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(context.Background(), &stubTool{
		name: "broken",
		execute: func(ctx context.Context, argument string) (map[string]any, error) {
			return nil, stderrors.New("upstream down")
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	handler := dispatchHandler(registry, "broken")

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"argument": "anything"}

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatalf("expected error result, got %+v", res)
	}
}

func TestNewMCPServerExposesRegisteredTools(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"logistics", "aliyun_ocr"} {
		if err := registry.Register(context.Background(), &stubTool{name: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if srv := NewMCPServer(registry, "test"); srv == nil {
		t.Fatalf("nil server")
	}
}
