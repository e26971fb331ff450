package building

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/building"
	"github.com/bgraf/optimizehtml/config"
)

func RunOptimizeCmd(cmd *cobra.Command, args []string) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return errors.Errorf("invalid log level '%s': %w", levelName, err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	ctx := logger.WithContext(cmd.Context())

	opts, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	if opts.IgnoreImports, err = opts.IgnoreImports.Abs(); err != nil {
		return err
	}

	if opts.IgnoreExternals, err = opts.IgnoreExternals.Abs(); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("working directory: %w", err)
	}

	logger.Debug().Interface("options", opts).Msg("loaded options")

	_, err = building.Build(ctx, building.Options{
		Pipeline: opts,
		Roots:    args,
		Cwd:      cwd,
	})

	return err
}
