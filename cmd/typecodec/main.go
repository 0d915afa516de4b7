package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/typecodec"
	"github.com/wippyai/typecodec/codec"
	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
	"github.com/wippyai/typecodec/internal/config"
	"github.com/wippyai/typecodec/schemadoc"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by the commands once the root command has
// loaded the configuration.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	ctx     *codec.Context
	cfgFile string
	schema  string
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "typecodec",
		Short: "Compile and exercise type descriptors",
		Long: `typecodec compiles the types of a YAML schema document into conversion
methods and uses them to validate and convert JSON or YAML values.

Configuration is read from typecodec.yaml in the working directory or
$HOME/.config/typecodec, and from TYPECODEC_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Path to config file")
	root.PersistentFlags().StringVarP(&a.schema, "schema", "s", "", "Path to schema document (default from config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newConvertCmd(a))
	root.AddCommand(newExploreCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadFile(a.cfgFile)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	a.log, err = a.cfg.Logger(a.verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	codec.SetLogger(a.log.Named("codec"))
	conversion.SetLogger(a.log.Named("conversion"))

	if a.noColor || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	a.ctx = typecodec.Default()
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) loadSchema() (*schemadoc.Document, error) {
	path := a.schema
	if path == "" {
		path = a.cfg.Schema
	}
	if path == "" {
		return nil, fmt.Errorf("no schema document: use --schema or set schema in typecodec.yaml")
	}
	doc, err := schemadoc.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug("schema loaded", zap.String("path", path), zap.Int("types", len(doc.Names())))
	return doc, nil
}

// convert deserializes v as t, then serializes the result back to a tree.
func (a *app) convert(t *descriptor.Type, v any) (value any, out any, err error) {
	opts := a.cfg.CodecOptions()
	des, err := a.ctx.CompileDeserializer(t, opts)
	if err != nil {
		return nil, nil, err
	}
	value, err = des.Convert(v)
	if err != nil {
		return nil, nil, err
	}
	ser, err := a.ctx.CompileSerializer(t, opts)
	if err != nil {
		return nil, nil, err
	}
	out, err = ser.Convert(value)
	if err != nil {
		return nil, nil, err
	}
	return value, out, nil
}

// describeError renders err one line per failing path.
func describeError(err error) []string {
	verr, ok := errors.AsValidation(err)
	if !ok {
		return []string{err.Error()}
	}
	var lines []string
	for _, e := range verr.Flatten() {
		lines = append(lines, "$"+pathSuffix(e.Path)+": "+strings.Join(e.Messages, ", "))
	}
	return lines
}

func pathSuffix(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return "." + strings.Join(path, ".")
}
