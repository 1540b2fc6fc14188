package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent in the terminal",
	Long:  longChat,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		conversationID := uuid.NewString()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("✅ 客服助手已就绪，输入 quit 退出。")
		fmt.Println("💡 命令：tool:<名称>:<参数> 调用工具，image:<路径> 识别图片。")

		for {
			fmt.Print("\n👤 用户: ")

			if !scanner.Scan() {
				break
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			if input == "quit" || input == "exit" || input == "退出" {
				fmt.Println("👋 感谢使用，再见！")
				break
			}

			fmt.Println("🤖 客服:", rt.agent.HandleMessage(cmd.Context(), conversationID, input))
		}

		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

var longChat = `
Start an interactive conversation with the agent. Plain text goes
through retrieval and generation; tool commands go through the
dispatcher.

Examples:
  tool:logistics:SF123456789CN
  image:receipt.jpg
  怎么申请退货？
`
