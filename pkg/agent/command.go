package agent

import "strings"

type CommandKind int

const (
	PlainQuery CommandKind = iota
	ToolInvocation
)

/*
Command is one classified line of chat input. Tool invocations carry the
target tool name and its argument, plain queries carry the original text
for the retrieval pipeline.
*/
type Command struct {
	Kind     CommandKind
	Tool     string
	Argument string
	Query    string
}

const ocrToolName = "aliyun_ocr"

/*
ParseCommand classifies raw chat input. tool:<name>:<argument> invokes
a tool, and only the first two colons delimit anything, so URLs and
Windows paths come through intact in the argument. image:<path> is the
legacy shorthand for the OCR tool. Everything else is a plain query.
Parsing never fails; unknown tool names are left for the dispatcher to
reject.
*/
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "tool:") {
		parts := strings.SplitN(strings.TrimPrefix(input, "tool:"), ":", 2)

		command := Command{Kind: ToolInvocation, Tool: parts[0]}
		if len(parts) == 2 {
			command.Argument = parts[1]
		}

		return command
	}

	if strings.HasPrefix(input, "image:") {
		return Command{
			Kind:     ToolInvocation,
			Tool:     ocrToolName,
			Argument: strings.TrimPrefix(input, "image:"),
		}
	}

	return Command{Kind: PlainQuery, Query: input}
}
