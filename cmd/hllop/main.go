package main

import (
	"fmt"
	"io"
	"os"

	"github.com/influxdata/hllop/kit/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

func main() {
	cmd, err := NewHLLOpCommand(viper.New(), os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the settings shared by every subcommand.
type options struct {
	logLevel     zapcore.Level
	logFormat    string
	serializer   string
	printMetrics bool

	key      string
	boltPath string
}

// NewHLLOpCommand returns the root hllop command writing results to stdout
// and logs to stderr.
func NewHLLOpCommand(v *viper.Viper, stdout, stderr io.Writer) (*cobra.Command, error) {
	o := &options{}
	cmd, err := cli.NewCommand(v, &cli.Program{
		Name:  "hllop",
		Short: "Build and run batches of HyperLogLog operations",
		Opts: []cli.Opt{
			{
				DestP:      &o.logLevel,
				Flag:       "log-level",
				Default:    zapcore.InfoLevel,
				Desc:       "supported log levels are debug, info, warn and error",
				Persistent: true,
			},
			{
				DestP:      &o.logFormat,
				Flag:       "log-format",
				Default:    "auto",
				Desc:       "log output format: auto, console, json or logfmt",
				Persistent: true,
			},
			{
				DestP:      &o.serializer,
				Flag:       "serializer",
				Default:    "none",
				Desc:       "serializer for values with no native representation: none or msgpack",
				Persistent: true,
			},
			{
				DestP:      &o.printMetrics,
				Flag:       "print-metrics",
				Desc:       "write the collected metrics to stderr on exit",
				Persistent: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	cmd.SilenceUsage = true
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	operateCmd := newOperateCommand(o, stdout, stderr)
	if err := cli.BindOptions(v, operateCmd, []cli.Opt{
		{
			DestP:   &o.key,
			Flag:    "key",
			Default: "default",
			Desc:    "key of the record to operate on",
		},
		{
			DestP: &o.boltPath,
			Flag:  "bolt-path",
			Desc:  "path to the bolt database; records are kept in memory when empty",
		},
	}); err != nil {
		return nil, err
	}

	cmd.AddCommand(
		newBuildCommand(o, stdout, stderr),
		newValidateCommand(o, stdout, stderr),
		operateCmd,
	)
	return cmd, nil
}
