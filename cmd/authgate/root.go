package main

import (
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
)

var BuildVersion = "dev"

type rootOptions struct {
	configPath string
	verbosity  int
	getenv     func(string) string
}

func (o *rootOptions) logger() logr.Logger {
	stdr.SetVerbosity(o.verbosity)
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("authgate")
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := &rootOptions{getenv: getenv}

	root := &cobra.Command{
		Use:          "authgate",
		Short:        "Multi-tenant authentication gateway",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml or toml)")
	root.PersistentFlags().IntVarP(&opts.verbosity, "verbosity", "v", 0, "log verbosity")

	root.AddCommand(
		newServeCmd(opts),
		newCheckConfigCmd(opts),
		newHashPasswordCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of authgate",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("%s\n", BuildVersion)
			},
		},
	)
	return root
}
