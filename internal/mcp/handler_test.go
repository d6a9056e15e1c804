package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// newAPIServer fakes the admin API
func newAPIServer(t *testing.T, calls *callLog) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.add(r.Method + " " + r.URL.RequestURI())
		switch r.URL.Path {
		case "/api/stats":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"total": 5, "phrases": 3, "haikus": 2, "used": 1, "remaining": 4,
				"auto_sent": 7, "manual_sent": 2, "quiet_hours": "00:00 - 07:00",
			})
		case "/api/status":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user_id": "42", "status": "offline", "offline_for": "1h 5m", "scheduler_active": true,
			})
		case "/api/summon":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["user_id"] == "missing" {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "target user not found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"summon_id": 3, "kind": "haiku", "channel_id": "c1", "message_id": "m1",
			})
		case "/api/reload":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"total": 5, "phrases": 3, "haikus": 2, "forced": r.URL.Query().Get("force") == "true",
			})
		case "/api/reset", "/api/scheduler/stop":
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHandler_SummonStats(t *testing.T) {
	calls := &callLog{}
	handler := NewHandler(NewClient(newAPIServer(t, calls).URL))

	_, out, err := handler.SummonStats(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("Unexpected tool error: %s", out.Error)
	}
	if out.Total != 5 || out.Remaining != 4 || out.AutoSent != 7 {
		t.Errorf("Unexpected stats %+v", out)
	}
	if out.LastAutoSummon != "never" {
		t.Errorf("Expected last auto summon 'never', got %q", out.LastAutoSummon)
	}
}

func TestHandler_WatchedStatus(t *testing.T) {
	calls := &callLog{}
	handler := NewHandler(NewClient(newAPIServer(t, calls).URL))

	_, out, _ := handler.WatchedStatus(context.Background(), nil, EmptyInput{})
	if out.Status != "offline" || out.OfflineFor != "1h 5m" || !out.SchedulerActive {
		t.Errorf("Unexpected status %+v", out)
	}
}

func TestHandler_ManualSummon(t *testing.T) {
	calls := &callLog{}
	handler := NewHandler(NewClient(newAPIServer(t, calls).URL))

	_, out, _ := handler.ManualSummon(context.Background(), nil, ManualSummonInput{UserID: "7"})
	if !out.Success || out.SummonID != 3 || out.Kind != "haiku" {
		t.Errorf("Unexpected summon output %+v", out)
	}

	_, out, _ = handler.ManualSummon(context.Background(), nil, ManualSummonInput{UserID: "missing"})
	if out.Success {
		t.Error("Expected failure for unknown user")
	}
	if out.Error != "HTTP 404: target user not found" {
		t.Errorf("Unexpected error %q", out.Error)
	}
}

func TestHandler_Actions(t *testing.T) {
	calls := &callLog{}
	handler := NewHandler(NewClient(newAPIServer(t, calls).URL))
	ctx := context.Background()

	_, reload, _ := handler.ReloadMessages(ctx, nil, ReloadInput{Force: true})
	if !reload.Success || reload.Total != 5 {
		t.Errorf("Unexpected reload output %+v", reload)
	}
	if _, out, _ := handler.ResetUsed(ctx, nil, EmptyInput{}); !out.Success {
		t.Errorf("Expected reset success, got %+v", out)
	}
	if _, out, _ := handler.StopScheduler(ctx, nil, EmptyInput{}); !out.Success {
		t.Errorf("Expected stop success, got %+v", out)
	}

	want := []string{"POST /api/reload?force=true", "POST /api/reset", "POST /api/scheduler/stop"}
	if got := calls.list(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected API calls %v", got)
	}
}

func TestHandler_APIUnavailable(t *testing.T) {
	handler := NewHandler(NewClient("http://127.0.0.1:1"))

	_, out, err := handler.QuietHours(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("Expected tool-level error only, got %v", err)
	}
	if out.Error == "" {
		t.Error("Expected error in output")
	}
}

func TestServer_ListAndCallTools(t *testing.T) {
	calls := &callLog{}
	handler := NewHandler(NewClient(newAPIServer(t, calls).URL))
	server := NewServer(handler, "test")

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.GetServer().Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := ToolNames()
	sort.Strings(want)
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected tools %v, got %v", want, names)
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "summon_stats", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %+v", result.Content)
	}
	if got := calls.list(); len(got) != 1 || got[0] != "GET /api/stats" {
		t.Errorf("Expected one stats call, got %v", got)
	}
}
