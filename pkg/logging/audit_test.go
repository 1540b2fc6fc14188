package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var events []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		event := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		events = append(events, event)
	}

	return events
}

func TestAuditRecordsDispatchesAndExchanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	audit := NewAudit(path)

	audit.ToolDispatched("logistics", "SF123456789CN", true, nil, 40*time.Millisecond)
	audit.ToolDispatched("aliyun_ocr", "receipt.jpg", false, errors.New("timed out"), time.Second)
	audit.ExchangeCompleted("c1", "你们的退货政策是什么？", "七天无理由退换货。", 120*time.Millisecond)
	audit.Sync()

	events := readEvents(t, path)
	require.Len(t, events, 3)

	assert.Equal(t, "tool_dispatch", events[0]["event"])
	assert.Equal(t, "logistics", events[0]["tool"])
	assert.Equal(t, "SF123456789CN", events[0]["argument"])
	assert.Equal(t, true, events[0]["success"])
	assert.NotContains(t, events[0], "error")

	assert.Equal(t, false, events[1]["success"])
	assert.Equal(t, "timed out", events[1]["error"])

	assert.Equal(t, "exchange", events[2]["event"])
	assert.Equal(t, "c1", events[2]["conversation_id"])
	assert.Equal(t, "七天无理由退换货。", events[2]["reply"])
}

func TestNilAuditIsSafe(t *testing.T) {
	var audit *Audit

	assert.NotPanics(t, func() {
		audit.ToolDispatched("logistics", "SF123456789CN", true, nil, time.Millisecond)
		audit.ExchangeCompleted("c1", "hi", "hello", time.Millisecond)
		audit.Sync()
	})
}
