package agent

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected Command
	}{
		{
			name:     "tool invocation",
			input:    "tool:logistics:SF123456789CN",
			expected: Command{Kind: ToolInvocation, Tool: "logistics", Argument: "SF123456789CN"},
		},
		{
			name:     "argument keeps its own colons",
			input:    "tool:aliyun_ocr:https://img.example.com/a.jpg",
			expected: Command{Kind: ToolInvocation, Tool: "aliyun_ocr", Argument: "https://img.example.com/a.jpg"},
		},
		{
			name:     "missing argument",
			input:    "tool:logistics",
			expected: Command{Kind: ToolInvocation, Tool: "logistics", Argument: ""},
		},
		{
			name:     "empty tool name stays an invocation",
			input:    "tool::whatever",
			expected: Command{Kind: ToolInvocation, Tool: "", Argument: "whatever"},
		},
		{
			name:     "legacy image shorthand",
			input:    "image:test.jpg",
			expected: Command{Kind: ToolInvocation, Tool: "aliyun_ocr", Argument: "test.jpg"},
		},
		{
			name:     "legacy image shorthand with windows path",
			input:    `image:C:\Users\Name\Pictures\product.jpg`,
			expected: Command{Kind: ToolInvocation, Tool: "aliyun_ocr", Argument: `C:\Users\Name\Pictures\product.jpg`},
		},
		{
			name:     "plain query",
			input:    "怎么申请退货？",
			expected: Command{Kind: PlainQuery, Query: "怎么申请退货？"},
		},
		{
			name:     "plain query is trimmed",
			input:    "  do you ship to Tibet?  ",
			expected: Command{Kind: PlainQuery, Query: "do you ship to Tibet?"},
		},
		{
			name:     "prefix match is case sensitive",
			input:    "Tool:logistics:SF1",
			expected: Command{Kind: PlainQuery, Query: "Tool:logistics:SF1"},
		},
		{
			name:     "prefix inside a sentence is not a command",
			input:    "how do I use tool:logistics?",
			expected: Command{Kind: PlainQuery, Query: "how do I use tool:logistics?"},
		},
		{
			name:     "leading whitespace before a command is ignored",
			input:    "  tool:logistics:SF123456789CN",
			expected: Command{Kind: ToolInvocation, Tool: "logistics", Argument: "SF123456789CN"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCommand(tc.input)
			if got != tc.expected {
				t.Fatalf("ParseCommand(%q) = %+v, expected %+v", tc.input, got, tc.expected)
			}
		})
	}
}
