package cmd

import (
	"encoding/json"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/karlding/canmsggen/pkg/schema"
)

var dumpFormat string

func init() {
	rootCmd.AddCommand(dumpCommand)

	dumpCommand.Flags().StringVarP(&dumpFormat, "format", "f", "json", "Output format [json,yaml,toml,cbor]")
}

var dumpCommand = &cobra.Command{
	Use:   "dump <schema.csv>",
	Short: "Print the parsed field layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openSchema(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		groups, err := schema.ReadAll(in)
		if err != nil {
			return errors.Wrapf(err, "loading %s", args[0])
		}
		return dump(groups, dumpFormat, cmd.OutOrStdout())
	},
}

// Layout is the exported form of a schema
type Layout struct {
	Groups []*schema.Group `json:"groups" yaml:"groups" toml:"group"`
}

func dump(groups []*schema.Group, format string, out io.Writer) error {
	layout := Layout{Groups: groups}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(layout)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(layout); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(out).Encode(layout)
	case "cbor":
		data, err := cbor.Marshal(layout)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return errors.Newf("unknown format %q", format)
}
