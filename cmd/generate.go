package cmd

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/karlding/canmsggen/pkg/schema"
)

var (
	outputFile  string
	mode        string
	quirks      string
	legacyFlush bool
	wideFields  bool
	validation  string
	headerGuard string
)

func init() {
	rootCmd.AddCommand(generateCommand)

	generateCommand.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	generateCommand.Flags().StringVarP(&mode, "mode", "m", "", "Accessor style [typed,multiview]")
	generateCommand.Flags().StringVarP(&quirks, "quirks", "q", "", "Multiview arithmetic [strict,corrected]")
	generateCommand.Flags().BoolVar(&legacyFlush, "legacy-flush", false, "Drop the last group like the original generator")
	generateCommand.Flags().BoolVar(&wideFields, "wide", false, "Accept 8 byte fields")
	generateCommand.Flags().StringVar(&validation, "validation", "", "Schema checks [off,warn,error]")
	generateCommand.Flags().StringVar(&headerGuard, "header-guard", "", "Wrap the output in an include guard")
}

var generateCommand = &cobra.Command{
	Use:   "generate <schema.csv>",
	Short: "Generate accessor structs for every message group",
	Long: `Reads a realtime broadcast field layout and writes one accessor struct per
message group. Use "-" to read the layout from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyGenerateFlags(cmd)
		if err := conf.Validate(); err != nil {
			return err
		}
		return generate(args[0], cmd.OutOrStdout())
	},
}

// applyGenerateFlags overrides the config file with the flags that were set
func applyGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		conf.Mode = mode
	}
	if flags.Changed("quirks") {
		conf.Quirks = quirks
	}
	if flags.Changed("legacy-flush") {
		conf.FlushTrailing = !legacyFlush
	}
	if flags.Changed("wide") {
		conf.WideFields = wideFields
	}
	if flags.Changed("validation") {
		conf.Validation = validation
	}
	if flags.Changed("header-guard") {
		conf.HeaderGuard = headerGuard
	}
}

func openSchema(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening schema")
	}
	return f, nil
}

// createOutput opens the header file generate writes to
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func generate(schemaPath string, stdout io.Writer) error {
	gen, err := conf.Generator()
	if err != nil {
		return err
	}
	gen.Log = log

	in, err := openSchema(schemaPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out := stdout
	var f io.WriteCloser
	if outputFile != "" {
		f, err = createOutput(outputFile)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer f.Close()
		out = f
	}

	stats, err := gen.Run(in, out)
	var dropped *schema.TrailingGroupNotEmittedError
	if err != nil && !errors.As(err, &dropped) {
		return errors.Wrapf(err, "generating from %s", schemaPath)
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", outputFile)
		}
	}

	log.WithFields(logrus.Fields{
		"groups": stats.Groups,
		"fields": stats.Fields,
		"issues": stats.Issues,
	}).Info("Generated accessors")
	return nil
}
