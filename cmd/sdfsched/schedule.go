package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/manifest"
	"github.com/kbukum/dataflow/scheduler"
)

// graphFlags are shared by the commands reading a graph document.
type graphFlags struct {
	options string
	vars    []string
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.options, "options", "", "Scheduling options document (schedule-options, code-generation-options, ...)")
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "Set an HCL variable (name=value), repeatable")
}

// load reads the graph named by name and the scheduling configuration.
func (f *graphFlags) load(name string) (*graph.Graph, scheduler.Config, error) {
	cfg := appConfig.Schedule
	if f.options != "" {
		var err error
		if cfg, err = manifest.LoadConfigOver(f.options, cfg); err != nil {
			return nil, cfg, err
		}
	}

	vars, err := parseVars(f.vars)
	if err != nil {
		return nil, cfg, err
	}
	loader := manifest.NewFileLoader(appConfig.GraphDirs...)
	loader.Vars = vars
	g, err := loader.Load(name)
	if err != nil {
		return nil, cfg, err
	}
	return g, cfg, nil
}

// parseVars turns name=value pairs into cty values. Values that parse as
// numbers become numbers, "true"/"false" become booleans.
func parseVars(pairs []string) (map[string]cty.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]cty.Value, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", p)
		}
		switch {
		case value == "true" || value == "false":
			vars[name] = cty.BoolVal(value == "true")
		default:
			if n, ok := new(big.Float).SetString(value); ok {
				vars[name] = cty.NumberVal(n)
			} else {
				vars[name] = cty.StringVal(value)
			}
		}
	}
	return vars, nil
}

func scheduleCmd() *cobra.Command {
	var (
		gf                 graphFlags
		format             string
		output             string
		verify             bool
		memoryOptimization bool
		sinkPriority       bool
		strategy           string
		prefix             string
	)

	cmd := &cobra.Command{
		Use:   "schedule <graph>",
		Short: "Compute the static schedule and buffer plan of a graph",
		Long: `Compute the static schedule of a graph document. <graph> is a path or a
name looked up in graph_dirs with the .yaml, .yml and .hcl extensions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, cfg, err := gf.load(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("memory-optimization") {
				cfg.MemoryOptimization = memoryOptimization
			}
			if flags.Changed("sink-priority") {
				cfg.SinkPriority = sinkPriority
			}
			if flags.Changed("mem-strategy") {
				cfg.MemStrategy = strategy
			}
			if flags.Changed("prefix") {
				cfg.Prefix = prefix
			}

			log := logger.WithComponent("cli")
			compiler := scheduler.WithLogging(scheduler.NewCompiler(args[0], cfg), log)
			s, err := compiler.Compile(cmd.Context(), g)
			if err != nil {
				return err
			}

			view := manifest.DescribeSchedule(s)
			if verify {
				if view.Peaks, err = s.Replay(); err != nil {
					return err
				}
			}
			return writeView(cmd.OutOrStdout(), view, format, output)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the schedule to a file instead of stdout")
	cmd.Flags().BoolVar(&verify, "verify", false, "Replay the schedule and report FIFO peak occupancy")
	cmd.Flags().BoolVar(&memoryOptimization, "memory-optimization", false, "Let array FIFOs share buffers")
	cmd.Flags().BoolVar(&sinkPriority, "sink-priority", false, "Schedule sinks as early as possible")
	cmd.Flags().StringVar(&strategy, "mem-strategy", "", "Graph coloring strategy of the memory planner")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix of generated buffer names")
	return cmd
}

func writeView(w io.Writer, view *manifest.ScheduleView, format, output string) error {
	if format == "text" {
		if output != "" {
			return fmt.Errorf("--output needs --format yaml or json")
		}
		printSummary(w, view)
		return nil
	}
	f, err := manifest.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := manifest.EncodeView(view, f)
	if err != nil {
		return err
	}
	return writeOutput(w, output, data)
}

func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// printSummary renders a human readable schedule.
func printSummary(w io.Writer, v *manifest.ScheduleView) {
	fmt.Fprintf(w, "%s %s  %s %s  %s %d  %s %d bytes\n",
		dim("schedule"), bold(v.ID),
		dim("policy"), boldCyan(v.Policy),
		dim("steps"), v.Length,
		dim("memory"), v.Memory)

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Nodes"))
	for _, n := range v.Nodes {
		reps := dim("-")
		if n.Repetitions != nil {
			reps = fmt.Sprintf("x%d", *n.Repetitions)
		}
		class := ""
		if n.Class != "" {
			class = " " + dim(n.Class)
		}
		fmt.Fprintf(w, "  %-6s %s %s%s\n", reps, boldMagenta(n.Name), dim("("+n.Kind+")"), class)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Sequence"))
	fmt.Fprintf(w, "  %s\n", strings.Join(compressSequence(v.Sequence), " "))

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("FIFOs"))
	for i, f := range v.FIFOs {
		flags := []string{}
		if f.Array {
			flags = append(flags, green("array"))
		}
		if f.Delay > 0 {
			flags = append(flags, yellow(fmt.Sprintf("delay=%d", f.Delay)))
		}
		if f.Weak {
			flags = append(flags, yellow("weak"))
		}
		if f.SkipCopy {
			flags = append(flags, dim("skip-copy"))
		}
		peak := ""
		if i < len(v.Peaks) {
			peak = dim(fmt.Sprintf(" peak=%d", v.Peaks[i]))
		}
		where := cyan(f.Buffer)
		if f.Storage == manifest.StorageNode {
			where = dim("node:" + f.Custom)
		}
		fmt.Fprintf(w, "  %s %s -> %s  %s[%d] in %s%s %s\n",
			dim(fmt.Sprintf("#%d", f.ID)), f.Src, f.Dst, f.Type, f.Length,
			where, peak, strings.Join(flags, " "))
	}

	if len(v.Buffers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, bold("Buffers"))
		for _, b := range v.Buffers {
			fmt.Fprintf(w, "  %s %s[%d] %s\n", cyan(b.Name), b.Type, b.Length, dim(fmt.Sprintf("%d bytes", b.Bytes)))
		}
	}
}

// compressSequence folds runs of the same node into name*count.
func compressSequence(seq []string) []string {
	var out []string
	for i := 0; i < len(seq); {
		j := i
		for j < len(seq) && seq[j] == seq[i] {
			j++
		}
		if n := j - i; n > 1 {
			out = append(out, fmt.Sprintf("%s*%d", seq[i], n))
		} else {
			out = append(out, seq[i])
		}
		i = j
	}
	return out
}
