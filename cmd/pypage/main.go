// Command pypage renders a pypage template file against an optional
// JSON seed, writing the result to stdout or a named output file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arjun-menon/pypage-go"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		seedPath   string
		outputPath string
		debug      bool
		dumpState  bool
	)

	cmd := &cobra.Command{
		Use:     "pypage [template-file]",
		Short:   "Render a pypage template",
		Version: pypage.Version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed(seedPath)
			if err != nil {
				return err
			}

			tpl, err := pypage.FromFile(args[0])
			if err != nil {
				return err
			}

			renderOpts := []pypage.Option{
				pypage.WithDebug(debug),
				pypage.WithInject(readFile),
				pypage.WithInclude(renderInclude(seed, debug)),
			}

			var out string
			if dumpState {
				var state map[string]any
				out, state, err = tpl.ExecuteState(seed, renderOpts...)
				if err != nil {
					return err
				}
				if err := dumpFinalState(state); err != nil {
					return err
				}
			} else {
				out, err = tpl.Execute(seed, renderOpts...)
				if err != nil {
					return err
				}
			}

			return writeOutput(outputPath, out)
		},
	}

	cmd.Flags().StringVarP(&seedPath, "seed", "s", "", "JSON file of seed variables")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable diagnostic logging")
	cmd.Flags().BoolVar(&dumpState, "dump-state", false, "print the namespace's final bindings as JSON to stderr")

	return cmd
}

// dumpFinalState prints a render's final namespace bindings as JSON to
// stderr, letting --dump-state inspect what a template bound or
// mutated (a capture variable, a seeded counter, macro closures).
func dumpFinalState(state map[string]any) error {
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func loadSeed(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seed map[string]any
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file as JSON: %w", err)
	}
	return seed, nil
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderInclude returns an include() builtin that parses and executes
// the named file as a nested template sharing the same seed, rather
// than inlining it as literal text the way inject() does.
func renderInclude(seed map[string]any, debug bool) func(string) (string, error) {
	return func(path string) (string, error) {
		src, err := readFile(path)
		if err != nil {
			return "", err
		}
		return pypage.Process(src, seed, pypage.WithDebug(debug))
	}
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
