package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/typecodec/tree"
)

type convertFlags struct {
	format  string
	output  string
	path    string
	dump    bool
	compact bool
	sort    bool
}

func newConvertCmd(a *app) *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert <type> [input]",
		Short: "Validate and convert a value against a schema type",
		Long: `Deserialize a JSON or YAML value as a schema type, then serialize the
result back and print it. Validation errors are reported one line per path.

Examples:
  typecodec convert -s types.yaml Server server.json
  typecodec convert -s types.yaml Server --path servers.0 < all.json
  typecodec convert -s types.yaml Server config.yaml --output yaml --dump`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", "auto", "Input format: json, yaml or auto")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&f.path, "path", "p", "", "Select the input value at a JSON path (JSON input only)")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "Dump the deserialized in-memory value")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "Print compact JSON")
	cmd.Flags().BoolVar(&f.sort, "sort", false, "Sort object keys in JSON output")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string, f *convertFlags) error {
	doc, err := a.loadSchema()
	if err != nil {
		return err
	}
	t, err := doc.Lookup(args[0])
	if err != nil {
		return err
	}

	input := "-"
	if len(args) > 1 {
		input = args[1]
	}
	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	format := f.format
	if format == "auto" {
		format = detectFormat(input)
	}
	var v any
	if f.path != "" {
		if format != "json" {
			return fmt.Errorf("--path needs JSON input")
		}
		v, err = tree.SelectJSON(data, f.path)
	} else {
		v, err = tree.Parse(format, data)
	}
	if err != nil {
		return err
	}

	value, out, err := a.convert(t, v)
	if err != nil {
		errorColor := color.New(color.FgRed)
		for _, line := range describeError(err) {
			errorColor.Fprintln(cmd.ErrOrStderr(), line)
		}
		return fmt.Errorf("%s: conversion failed", args[0])
	}

	w := cmd.OutOrStdout()
	if f.dump {
		spew.Fdump(w, value)
	}

	var rendered []byte
	switch f.output {
	case "json":
		opts := tree.RenderOptions{Indent: "  ", Color: !color.NoColor, Sort: f.sort}
		if f.compact {
			opts.Indent = ""
		}
		rendered, err = tree.RenderJSON(out, opts)
	case "yaml":
		rendered, err = tree.RenderYAML(out)
	default:
		return fmt.Errorf("unknown output format %q", f.output)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(rendered); err != nil {
		return err
	}
	if len(rendered) > 0 && rendered[len(rendered)-1] != '\n' {
		fmt.Fprintln(w)
	}
	return nil
}

func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func detectFormat(input string) string {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
