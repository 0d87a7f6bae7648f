package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.einride.tech/can"

	"github.com/karlding/canmsggen/pkg/codec"
	"github.com/karlding/canmsggen/pkg/schema"
	"github.com/karlding/canmsggen/socketcan"
)

var (
	baseID       uint32
	decodeQuirks string
	decodeWide   bool
	captureFile  string
)

func init() {
	rootCmd.AddCommand(decodeCommand)

	decodeCommand.Flags().Uint32Var(&baseID, "base-id", 0, "CAN id of group 0 (default from config, 1520)")
	decodeCommand.Flags().StringVarP(&decodeQuirks, "quirks", "q", "", "Multiview arithmetic [strict,corrected]")
	decodeCommand.Flags().BoolVar(&decodeWide, "wide", false, "Accept 8 byte fields")
	decodeCommand.Flags().StringVar(&captureFile, "capture", "", "Also decode every can_frame record in a raw SocketCAN capture")
}

var decodeCommand = &cobra.Command{
	Use:   "decode <schema.csv> [frame]...",
	Short: "Decode broadcast frames in candump format",
	Long: `Decodes realtime broadcast frames such as 5F0#0011223344556677 against a
field layout, printing both the typed and the multiview interpretation of
every field. Frames read from a capture that are not part of the broadcast
are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("base-id") {
			conf.BaseID = baseID
		}
		if flags.Changed("quirks") {
			conf.Quirks = decodeQuirks
		}
		if flags.Changed("wide") {
			conf.WideFields = decodeWide
		}
		return decode(args[0], args[1:], cmd.OutOrStdout())
	},
}

func decode(schemaPath string, frames []string, out io.Writer) error {
	opts, err := conf.CodecOptions()
	if err != nil {
		return err
	}

	in, err := openSchema(schemaPath)
	if err != nil {
		return err
	}
	defer in.Close()

	groups, err := schema.ReadAll(in)
	if err != nil {
		return errors.Wrapf(err, "loading %s", schemaPath)
	}
	log.WithField("groups", len(groups)).Debug("Loaded schema")

	// Frames decoded before an error are still written out.
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	err = decodeFrames(w, groups, frames, opts)
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func decodeFrames(w io.Writer, groups []*schema.Group, frames []string, opts codec.Options) error {
	for _, s := range frames {
		var frame can.Frame
		if err := frame.UnmarshalString(s); err != nil {
			return errors.Wrapf(err, "parsing frame %q", s)
		}

		g, readings, err := codec.DecodeFrame(groups, conf.BaseID, frame, opts)
		if !decoded(err) {
			return err
		}
		printReadings(w, frame, g, readings)
	}

	if captureFile != "" {
		return decodeCapture(w, groups, opts)
	}
	return nil
}

// decoded reports whether a frame's readings should be printed: err is nil or
// only says that some fields were missing from a short frame
func decoded(err error) bool {
	if err == nil {
		return true
	}
	var truncated *codec.TruncatedFrameError
	if errors.As(err, &truncated) {
		log.WithField("missing", truncated.Missing).Warn(err)
		return true
	}
	return false
}

func decodeCapture(w io.Writer, groups []*schema.Group, opts codec.Options) error {
	f, err := os.Open(captureFile)
	if err != nil {
		return errors.Wrap(err, "opening capture")
	}
	defer f.Close()

	r := socketcan.NewReader(f)
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", captureFile)
		}

		g, readings, err := codec.DecodeFrame(groups, conf.BaseID, frame, opts)
		if !decoded(err) {
			log.WithField("frame", frame.String()).Debug(err)
			continue
		}
		printReadings(w, frame, g, readings)
	}
}

func printReadings(w io.Writer, frame can.Frame, g *schema.Group, readings []codec.Reading) {
	fmt.Fprintf(w, "%s\tgroup %d\n", frame.String(), g.ID)
	fmt.Fprintln(w, "FIELD\tRAW\tVALUE\tUNITS\t_raw\t_whole\t_frac\t_flt")
	for _, r := range readings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%g\n",
			r.Field.Name, r.Raw, formatScaled(r.Scaled), formatUnits(r.Field),
			r.Views.Raw, r.Views.Whole, r.Views.Frac, r.Views.Flt)
	}
	fmt.Fprintln(w)
}

func formatScaled(s codec.Scaled) string {
	if s.IsIdentity() {
		return s.Raw.String()
	}
	v, err := s.Value()
	if err != nil {
		return fmt.Sprintf("%g", s.Float())
	}
	return fmt.Sprintf("%d (%g)", v, s.Float())
}

func formatUnits(f schema.Field) string {
	if !f.HasUnits() || f.Units == "" {
		return ""
	}
	return f.Units
}
