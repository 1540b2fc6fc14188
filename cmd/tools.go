package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/concierge/pkg/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools and their availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := tools.NewRegistry(
			tools.WithTimeout(viper.GetDuration("tools.timeout")),
		)

		for _, tool := range []tools.Tool{tools.NewOCRTool(), tools.NewLogisticsTool()} {
			if err := registry.Register(cmd.Context(), tool); err != nil {
				return err
			}
		}

		for _, status := range registry.List() {
			marker := "✅"
			if !status.Enabled {
				marker = "❌"
			}

			fmt.Printf("%s %s: %s\n", marker, status.Name, status.Description)

			if status.Reason != "" {
				fmt.Printf("   %s\n", status.Reason)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
