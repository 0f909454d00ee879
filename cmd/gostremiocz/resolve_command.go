package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/models"
)

func newResolveCommand(configPath *string) *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:     "resolve <type> <id>",
		Short:   "Resolve an IMDb ID to streams and print them as JSON",
		Example: "  gostremiocz resolve movie tt0133093\n  gostremiocz resolve series tt0903747:1:1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, persist)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.RequestTimeout)
			defer cancel()

			resolver, session := a.container.ForRequest(nil)
			streams := resolver.Resolve(ctx, args[0], args[1], session)
			return writeJSON(cmd, models.StreamResponse{Streams: streams})
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "Read and write the title store")
	return cmd
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
