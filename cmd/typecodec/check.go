package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/typecodec/descriptor"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile every type of a schema document",
		Long: `Compile every type of the schema document in both directions and report
compile errors. Generic definitions are listed but only compiled through
their references.`,
		Args: cobra.NoArgs,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	doc, err := a.loadSchema()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	successColor := color.New(color.FgGreen)
	errorColor := color.New(color.FgRed, color.Bold)
	noteColor := color.New(color.FgCyan)
	opts := a.cfg.CodecOptions()

	names := doc.Names()
	failures := 0
	for _, name := range names {
		t, err := doc.Lookup(name)
		if err != nil {
			return err
		}
		if len(t.Params) > 0 {
			noteColor.Fprintf(out, "- %s", name)
			fmt.Fprintf(out, " generic over %s\n", strings.Join(t.Params, ", "))
			continue
		}

		var problems []string
		for _, dir := range []descriptor.Direction{descriptor.Deserialization, descriptor.Serialization} {
			if _, err := a.ctx.Compile(dir, t, nil, opts); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", dir, err))
			}
		}
		if len(problems) > 0 {
			failures++
			errorColor.Fprintf(out, "✗ %s\n", name)
			for _, p := range problems {
				fmt.Fprintf(out, "    %s\n", p)
			}
			continue
		}

		successColor.Fprintf(out, "✓ %s", name)
		if cyclic, err := a.ctx.IsCyclic(descriptor.Deserialization, t, opts); err == nil && cyclic {
			fmt.Fprint(out, " (recursive)")
		}
		fmt.Fprintln(out)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d types failed to compile", failures, len(names))
	}
	return nil
}
