package agent

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/concierge/pkg/errors"
	"github.com/theapemachine/concierge/pkg/logging"
	"github.com/theapemachine/concierge/pkg/memory"
	"github.com/theapemachine/concierge/pkg/provider"
	"github.com/theapemachine/concierge/pkg/retriever"
	"github.com/theapemachine/concierge/pkg/tools"
	"github.com/theapemachine/concierge/pkg/vector"
)

/*
Agent ties the retrieval pipeline, session memory, tool dispatch and
the generation provider together into a single conversational surface.
One exchange per conversation runs at a time; independent conversations
proceed concurrently.
*/
type Agent struct {
	retriever     *retriever.Retriever
	store         memory.Store
	registry      *tools.Registry
	generator     provider.Generator
	audit         *logging.Audit
	topK          int
	historyWindow int

	mu        sync.Mutex
	exchanges map[string]*sync.Mutex
}

type Option func(*Agent)

func New(
	rtrvr *retriever.Retriever,
	store memory.Store,
	registry *tools.Registry,
	generator provider.Generator,
	options ...Option,
) *Agent {
	agent := &Agent{
		retriever:     rtrvr,
		store:         store,
		registry:      registry,
		generator:     generator,
		topK:          3,
		historyWindow: 6,
		exchanges:     map[string]*sync.Mutex{},
	}

	for _, option := range options {
		option(agent)
	}

	return agent
}

func WithTopK(k int) Option {
	return func(agent *Agent) {
		agent.topK = k
	}
}

func WithHistoryWindow(turns int) Option {
	return func(agent *Agent) {
		agent.historyWindow = turns
	}
}

func WithAudit(audit *logging.Audit) Option {
	return func(agent *Agent) {
		agent.audit = audit
	}
}

/*
HandleMessage runs one full exchange and always comes back with a reply
string, never an error. Tool commands route through the dispatcher,
anything else goes through retrieval and generation. Memory is updated
with both sides of the exchange, or with neither when the exchange
failed.
*/
func (agent *Agent) HandleMessage(ctx context.Context, conversationID, input string) string {
	lock := agent.exchangeLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	command := ParseCommand(input)

	var reply string

	switch command.Kind {
	case ToolInvocation:
		reply = agent.handleTool(ctx, conversationID, command)
	default:
		reply = agent.handleQuery(ctx, conversationID, command.Query)
	}

	agent.audit.ExchangeCompleted(conversationID, input, reply, time.Since(started))

	return reply
}

func (agent *Agent) handleTool(ctx context.Context, conversationID string, command Command) string {
	result := agent.registry.Dispatch(ctx, command.Tool, command.Argument)

	if !result.Success() {
		return agent.failureReply(command.Tool, result.Err)
	}

	reply := formatToolReply(command.Tool, result.Payload)

	agent.store.Append(
		conversationID,
		memory.NewTurn(memory.RoleUser, fmt.Sprintf("tool:%s:%s", command.Tool, command.Argument)),
		memory.NewTurn(memory.RoleAssistant, reply),
	)

	return reply
}

func (agent *Agent) handleQuery(ctx context.Context, conversationID, query string) string {
	matches, err := agent.retriever.Retrieve(ctx, query, agent.topK)

	if err != nil {
		var embedErr *errors.EmbeddingError
		if stderrors.As(err, &embedErr) {
			log.Warn("retrieval unavailable, answering without context", "error", err)
		} else {
			log.Warn("retrieval failed, answering without context", "error", err)
		}

		matches = nil
	}

	history := agent.store.History(conversationID, agent.historyWindow)
	prompt := buildPrompt(query, matches, history)

	reply, err := agent.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error("generation failed", "conversation", conversationID, "error", err)
		return "抱歉，系统暂时无法响应您的问题，请稍后再试。"
	}

	agent.store.Append(
		conversationID,
		memory.NewTurn(memory.RoleUser, query),
		memory.NewTurn(memory.RoleAssistant, reply),
	)

	return reply
}

// exchangeLock returns the mutex serializing exchanges for one
// conversation, creating it on first use.
func (agent *Agent) exchangeLock(conversationID string) *sync.Mutex {
	agent.mu.Lock()
	defer agent.mu.Unlock()

	lock, ok := agent.exchanges[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		agent.exchanges[conversationID] = lock
	}

	return lock
}

/*
failureReply maps a dispatch failure onto a polite user-facing message.
Raw tool errors stay in the logs and the audit trail; the surface reply
only says what the user can act on.
*/
func (agent *Agent) failureReply(tool string, err error) string {
	var (
		unknown     *errors.UnknownToolError
		unavailable *errors.NotAvailableError
		timeout     *errors.TimeoutError
		execution   *errors.ExecutionError
	)

	switch {
	case stderrors.As(err, &unknown):
		names := make([]string, 0)
		for _, status := range agent.registry.List() {
			names = append(names, status.Name)
		}

		if len(names) == 0 {
			return "抱歉，当前没有可用的工具。"
		}

		return fmt.Sprintf(
			"抱歉，没有找到工具 %q。当前支持的工具有：%s。",
			tool, strings.Join(names, "、"),
		)
	case stderrors.As(err, &unavailable):
		return fmt.Sprintf(
			"抱歉，工具 %q 暂时不可用，请联系管理员完成相关配置后再试。", tool,
		)
	case stderrors.As(err, &timeout):
		return fmt.Sprintf("抱歉，工具 %q 响应超时，请稍后重试。", tool)
	case stderrors.As(err, &execution):
		return fmt.Sprintf("抱歉，工具 %q 执行时出现问题，请稍后重试。", tool)
	}

	return "抱歉，处理您的请求时出现问题，请稍后重试。"
}

func formatToolReply(tool string, payload map[string]any) string {
	switch tool {
	case ocrToolName:
		return formatOCRReply(payload)
	case "logistics":
		return formatLogisticsReply(payload)
	}

	return formatGenericReply(payload)
}

func formatOCRReply(payload map[string]any) string {
	var reply strings.Builder

	if text, _ := payload["text"].(string); text != "" {
		reply.WriteString("已识别图片中的文字：\n")
		reply.WriteString(text)
	} else {
		reply.WriteString("图片识别结果：\n")
		reply.WriteString(formatGenericReply(payload))
	}

	reply.WriteString("\n\n请问您想针对这张图片咨询什么？比如退换货、订单或物流问题。")

	return reply.String()
}

func formatLogisticsReply(payload map[string]any) string {
	if found, _ := payload["found"].(bool); !found {
		if message, _ := payload["message"].(string); message != "" {
			return message
		}

		return "未查询到相关物流信息，请确认运单号是否正确。"
	}

	var reply strings.Builder

	fmt.Fprintf(
		&reply, "运单 %v（%v）当前状态：%v。",
		payload["tracking"], payload["carrier"], payload["status"],
	)

	if trace, ok := payload["trace"].([]map[string]string); ok && len(trace) > 0 {
		reply.WriteString("\n物流轨迹：")

		for _, checkpoint := range trace {
			fmt.Fprintf(&reply, "\n- %s %s", checkpoint["time"], checkpoint["status"])
		}
	}

	return reply.String()
}

// formatGenericReply renders a payload as sorted key: value lines so
// tools without a dedicated renderer still read cleanly.
func formatGenericReply(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var reply strings.Builder

	for i, key := range keys {
		if i > 0 {
			reply.WriteByte('\n')
		}

		fmt.Fprintf(&reply, "%s: %v", key, payload[key])
	}

	return reply.String()
}

func buildPrompt(query string, matches []vector.Match, history []memory.Turn) string {
	var prompt strings.Builder

	prompt.WriteString("你是一名专业的电商客服，请根据参考信息和对话历史，用专业、友好的语气回答用户的问题。\n")
	prompt.WriteString("如果参考信息不足以完全回答问题，请诚实说明并建议联系人工客服。\n")

	if len(matches) > 0 {
		prompt.WriteString("\n参考信息：\n")

		for i, match := range matches {
			fmt.Fprintf(&prompt, "%d. %s\n", i+1, match.Entry.Text)
		}
	}

	if len(history) > 0 {
		prompt.WriteString("\n对话历史：\n")

		for _, turn := range history {
			fmt.Fprintf(&prompt, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&prompt, "\n用户问题：\n%s\n", query)

	return prompt.String()
}
