package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/concierge/pkg/vector"
)

var (
	rebuildFlag bool

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Build the vector index and show its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			embedder, _ := buildProviders()
			index := vector.NewInMemoryIndex()

			var err error
			if rebuildFlag {
				err = rebuildIndex(cmd.Context(), index, embedder)
			} else {
				err = loadIndex(cmd.Context(), index, embedder)
			}

			if err != nil {
				return err
			}

			fmt.Printf("entries:    %d\n", index.Len())
			fmt.Printf("dimensions: %d\n", index.Dimensions())

			if snapshot := viper.GetString("index.snapshot"); snapshot != "" {
				fmt.Printf("snapshot:   %s\n", snapshot)
			}

			for _, entry := range index.Entries() {
				fmt.Printf("  %-8s %s\n", entry.ID, entry.Metadata["question"])
			}

			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().BoolVar(&rebuildFlag, "rebuild", false, "re-embed the knowledge base even when a snapshot exists")
}
