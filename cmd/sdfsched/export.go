package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/dataflow/manifest"
	"github.com/kbukum/dataflow/scheduler"
)

func legalizeCmd() *cobra.Command {
	var (
		gf     graphFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "legalize <graph>",
		Short: "Insert duplicate nodes for fan-outs and print the resulting graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, cfg, err := gf.load(args[0])
			if err != nil {
				return err
			}
			if err := scheduler.Legalize(g, cfg); err != nil {
				return err
			}
			data, err := manifest.Encode(g)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph to a file instead of stdout")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		gf      graphFlags
		output  string
		options bool
	)

	cmd := &cobra.Command{
		Use:   "export <graph>",
		Short: "Convert a graph document (YAML or HCL) to canonical YAML",
		Long: `Convert a graph document to the canonical YAML layout. HCL variables are
resolved with their defaults and --var overrides. With --export-options the
effective scheduling options are written instead, in the options document
layout, keeping only values that differ from the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, cfg, err := gf.load(args[0])
			if err != nil {
				return err
			}
			var data []byte
			if options {
				data, err = manifest.EncodeConfig(cfg)
			} else {
				data, err = manifest.Encode(g)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&options, "export-options", false, "Export the effective scheduling options instead of the graph")
	return cmd
}
