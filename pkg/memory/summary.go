package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// intentLabels is ordered so detected intents always render in the
// same sequence. Each label contains its own primary keyword, which is
// what lets a prior summary's intents carry forward through a re-fold.
var intentLabels = []struct {
	label    string
	keywords []string
}{
	{"退货退款", []string{"退货", "退款", "refund", "return"}},
	{"物流配送", []string{"物流", "配送", "运费", "shipping", "delivery", "快递"}},
	{"订单查询", []string{"订单", "order"}},
	{"产品咨询", []string{"产品", "商品", "product"}},
	{"投诉建议", []string{"投诉", "complaint"}},
}

// orderPattern matches tracking and order numbers the way customers
// paste them: long runs of capitals and digits.
var orderPattern = regexp.MustCompile(`[A-Z0-9]{8,}`)

func detectIntents(turns []Turn) []string {
	var all strings.Builder
	for _, turn := range turns {
		all.WriteString(turn.Content)
		all.WriteString("\n")
	}

	text := strings.ToLower(all.String())
	var found []string

	for _, intent := range intentLabels {
		for _, keyword := range intent.keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				found = append(found, intent.label)
				break
			}
		}
	}

	return found
}

// extractOrderIDs pulls order/tracking numbers out of user and summary
// turns, deduplicated in first-seen order.
func extractOrderIDs(turns []Turn) []string {
	seen := make(map[string]bool)
	var out []string

	for _, turn := range turns {
		if turn.Role == RoleAssistant {
			continue
		}

		for _, id := range orderPattern.FindAllString(turn.Content, -1) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	return out
}

/*
foldSummary condenses evicted turns (plus any prior summary) into one
synthetic turn: detected intents, order numbers, and a recap of the
most recent user topic. It is deliberately mechanical; the point is to
keep entities like order numbers alive cheaply, not to paraphrase.
*/
func foldSummary(prior Turn, hasPrior bool, evicted []Turn) Turn {
	scan := evicted
	if hasPrior {
		scan = append([]Turn{prior}, evicted...)
	}

	intents := detectIntents(scan)
	orders := extractOrderIDs(scan)

	var b strings.Builder
	b.WriteString("此前对话摘要")

	if len(intents) > 0 {
		fmt.Fprintf(&b, "，涉及：%s", strings.Join(intents, "、"))
	}

	if len(orders) > 0 {
		fmt.Fprintf(&b, "，提到订单：%s", strings.Join(orders, "、"))
	}

	if topic := lastUserContent(evicted); topic != "" {
		fmt.Fprintf(&b, "。最近讨论：%s", truncateRunes(topic, 50))
	}

	return Turn{Role: RoleSummary, Content: b.String(), Timestamp: time.Now()}
}

func lastUserContent(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}

	return ""
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max]) + "…"
}
