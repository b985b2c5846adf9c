// Package cli arma los comandos cobra del binario medilocator.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"medilocator/internal/config"
	"medilocator/internal/platform/logger"
)

type rootOptions struct {
	envFile string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "medilocator",
		Short:         "Inventario de medicamentos: API, migraciones y búsqueda",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "archivo .env opcional (vacío para ignorarlo)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newSearchCmd(opts))

	return root
}

// load lee la config y arma el logger. Los logs van a w (stderr del comando)
// para no ensuciar la salida de search.
func (o *rootOptions) load(w io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadFile(o.envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
		Output: w,
	})
	return cfg, log, nil
}
