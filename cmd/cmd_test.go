package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"github.com/karlding/canmsggen/socketcan"
	"github.com/karlding/canmsggen/version"
)

var testSchema = filepath.Join("..", "pkg", "synth", "testdata", "broadcast.csv")

// resetFlags puts every flag back to its default so commands can be run
// repeatedly within one process
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.VERSION+"\n", out)
}

func TestGenerateTyped(t *testing.T) {
	out, err := run(t, "generate", testSchema)
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join("..", "pkg", "synth", "testdata", "broadcast.typed.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(golden), out)
}

func TestGenerateLegacyFlush(t *testing.T) {
	out, err := run(t, "generate", "--legacy-flush", testSchema)
	require.NoError(t, err, "a dropped trailing group is only a warning")
	assert.NotContains(t, out, "RtMsg03_t")
	assert.Contains(t, out, "RtMsg02_t")
}

func TestGenerateMultiViewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_msgs.h")

	out, err := run(t, "generate", "--mode", "multiview", "--header-guard", "RT_MSGS_H_", "-o", path, testSchema)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#ifndef RT_MSGS_H_\n"))
	assert.Contains(t, string(data), "  uint16_t rpm_frac() const {return (uint16_t)(rpm_raw() * 1 / 1);}\n")
}

func TestGenerateWithConfig(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "canmsggen.toml")
	require.NoError(t, os.WriteFile(confPath, []byte("mode = \"multiview\"\nquirks = \"corrected\"\n"), 0644))

	out, err := run(t, "generate", "-c", confPath, testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "  int16_t baro_raw() const {return MSG_GET_U16(data,0);}\n")

	out, err = run(t, "generate", "-c", confPath, "--mode", "typed", testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "MsgAttr<int16_t,1,10> baro() const")
}

type failingCloser struct {
	bytes.Buffer
}

func (c *failingCloser) Close() error {
	return errors.New("no space left on device")
}

func TestGenerateReportsCloseError(t *testing.T) {
	defer func(orig func(string) (io.WriteCloser, error)) { createOutput = orig }(createOutput)
	out := new(failingCloser)
	createOutput = func(string) (io.WriteCloser, error) {
		return out, nil
	}

	_, err := run(t, "generate", "-o", "rt_msgs.h", testSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Contains(t, out.String(), "RtMsg00_t", "the header was written before closing")
}

func TestGenerateErrors(t *testing.T) {
	_, err := run(t, "generate", "--mode", "packed", testSchema)
	assert.Error(t, err)

	_, err = run(t, "generate", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "generate")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	out, err := run(t, "decode", testSchema, "5F2#03F203E8FFEC0320")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Contains(t, lines[0], "group 2")
	assert.Regexp(t, `^baro\s+1010\s+101 \(101\)\s+kPa`, lines[2])
	assert.Regexp(t, `^mat\s+-20\s+-2 \(-2\)\s+deg F\s+65516\s+6551\s`, lines[4])
}

func TestDecodeShortFrame(t *testing.T) {
	out, err := run(t, "decode", testSchema, "5F0#0011")
	require.NoError(t, err)

	assert.Regexp(t, `(?m)^seconds\s+17\s+17\s+s\s`, out)
	assert.NotContains(t, out, "pw1", "fields past the frame length are not decoded")
	assert.NotContains(t, out, "rpm")
}

func TestDecodeKeepsEarlierFrames(t *testing.T) {
	out, err := run(t, "decode", testSchema, "5F2#03F203E8FFEC0320", "5F9#00")
	require.Error(t, err)

	assert.Contains(t, out, "group 2")
	assert.Regexp(t, `(?m)^baro\s+1010\s+101 \(101\)\s+kPa`, out)
}

func TestDecodeUnknownGroup(t *testing.T) {
	_, err := run(t, "decode", "--base-id", "1024", testSchema, "5F2#0000000000000000")
	assert.Error(t, err)
}

func TestDecodeCapture(t *testing.T) {
	var capture bytes.Buffer
	buffer := make([]byte, socketcan.FrameSize)
	for _, frame := range []can.Frame{
		{ID: 0x100, Length: 2, Data: can.Data{0xFF, 0xFF}},
		{ID: 0x5F0, Length: 8, Data: can.Data{0x00, 0x2A, 0x03, 0xE8, 0x00, 0x00, 0x0B, 0xB8}},
	} {
		frame := frame
		socketcan.FrameToBuffer(&frame, buffer)
		capture.Write(buffer)
	}
	path := filepath.Join(t.TempDir(), "broadcast.bin")
	require.NoError(t, os.WriteFile(path, capture.Bytes(), 0644))

	out, err := run(t, "decode", "--capture", path, testSchema)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "group "), "frames outside the broadcast are skipped")
	assert.Contains(t, out, "group 0")
	assert.Regexp(t, `(?m)^seconds\s+42\s+42\s+s\s`, out)
	assert.Regexp(t, `(?m)^pw1\s+1000\s+1 \(1\)\s+ms\s`, out)
	assert.Regexp(t, `(?m)^rpm\s+3000\s+3000\s+RPM\s`, out)
}

func TestDumpJSON(t *testing.T) {
	out, err := run(t, "dump", testSchema)
	require.NoError(t, err)

	var layout Layout
	require.NoError(t, json.Unmarshal([]byte(out), &layout))
	require.Len(t, layout.Groups, 4)
	assert.Equal(t, "odometer", layout.Groups[3].Fields[0].Name)
	assert.True(t, layout.Groups[3].Fields[0].MS2)
}

func TestDumpCBOR(t *testing.T) {
	out, err := run(t, "dump", "--format", "cbor", testSchema)
	require.NoError(t, err)

	var layout Layout
	require.NoError(t, cbor.Unmarshal([]byte(out), &layout))
	require.Len(t, layout.Groups, 4)
	assert.Equal(t, 10, layout.Groups[2].Fields[0].Div)
}

func TestDumpYAMLAndTOML(t *testing.T) {
	out, err := run(t, "dump", "--format", "yaml", testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "name: adv_deg")

	out, err = run(t, "dump", "--format", "toml", testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "[[group]]")

	_, err = run(t, "dump", "--format", "xml", testSchema)
	assert.Error(t, err)
}
