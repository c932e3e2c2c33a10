package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetCommandState clears flag values and the global configuration left
// behind by a previous Execute on the shared rootCmd.
func resetCommandState(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	bindRootFlags()
	globalConfig, configLoader, configErr = nil, nil, nil
	resetFlags(rootCmd)
	cfgFile = ""
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs rootCmd with args and returns what it wrote to stdout
// and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWithInput(t, strings.NewReader(""), args...)
}

func executeCommandWithInput(t *testing.T, in io.Reader, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState(t)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// stubEngine makes commands use eng instead of Tesseract for one test.
func stubEngine(t *testing.T, eng ocr.Engine, err error) {
	t.Helper()
	orig := engineFactory
	engineFactory = func(*config.Config) (ocr.Engine, error) { return eng, err }
	t.Cleanup(func() { engineFactory = orig })
}

func staticSlipEngine(t *testing.T) {
	t.Helper()
	stubEngine(t, testutil.StaticEngine(testutil.SlipStandard, 92, 88), nil)
}
