package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticsExecuteKnownNumber(t *testing.T) {
	tool := NewLogisticsTool()

	payload, err := tool.Execute(context.Background(), "SF123456789CN")

	require.NoError(t, err)
	assert.Equal(t, true, payload["found"])
	assert.Equal(t, "SF123456789CN", payload["tracking"])
	assert.Equal(t, "顺丰速运", payload["carrier"])

	trace, ok := payload["trace"].([]map[string]string)
	require.True(t, ok)
	require.NotEmpty(t, trace)
	assert.NotEmpty(t, trace[0]["time"])
	assert.NotEmpty(t, trace[0]["status"])
}

func TestLogisticsExecuteNormalizesNumber(t *testing.T) {
	tool := NewLogisticsTool()

	payload, err := tool.Execute(context.Background(), "  yt987654321cn  ")

	require.NoError(t, err)
	assert.Equal(t, true, payload["found"])
	assert.Equal(t, "YT987654321CN", payload["tracking"])
	assert.Equal(t, "已签收", payload["status"])
}

func TestLogisticsExecuteUnknownNumber(t *testing.T) {
	tool := NewLogisticsTool()

	payload, err := tool.Execute(context.Background(), "ZZ000000000XX")

	require.NoError(t, err)
	assert.Equal(t, false, payload["found"])
	assert.Contains(t, payload["message"], "未查询到")
}

func TestLogisticsExecuteRejectsEmptyNumber(t *testing.T) {
	tool := NewLogisticsTool()

	_, err := tool.Execute(context.Background(), "   ")

	require.Error(t, err)
}

func TestLogisticsTraceIsFreshPerCall(t *testing.T) {
	tool := NewLogisticsTool()

	first, err := tool.Execute(context.Background(), "SF123456789CN")
	require.NoError(t, err)

	first["trace"].([]map[string]string)[0]["status"] = "tampered"

	second, err := tool.Execute(context.Background(), "SF123456789CN")
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", second["trace"].([]map[string]string)[0]["status"])
}
