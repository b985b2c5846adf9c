package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	fsstore "medilocator/internal/adapters/storage/firestore"
	pg "medilocator/internal/adapters/storage/postgres"
	"medilocator/internal/config"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres (DB_DSN) o completa los campos de búsqueda en Firestore",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if cfg.StoreBackend == config.BackendFirestore {
				client, err := fsstore.Open(cmd.Context(), cfg.FirestoreProjectID)
				if err != nil {
					return fmt.Errorf("open firestore: %w", err)
				}
				defer closeFirestore(client, log)

				count, err := fsstore.Backfill(cmd.Context(), client)
				if err != nil {
					return fmt.Errorf("backfill failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d document(s) successfully.\n", count)
				return nil
			}

			if strings.TrimSpace(cfg.DBDSN) == "" {
				return errors.New("DB_DSN is required to run migrations")
			}

			db, err := pg.Open(cfg.DBDSN, cfg.DBMaxConns)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer closeDB(db, log)

			count, err := pg.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
}
