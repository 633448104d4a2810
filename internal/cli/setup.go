package cli

import (
	"fmt"

	"github.com/JonMunkholm/DumpMigration/internal/setup"
	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the upload directories and .env templates",
		Long: `Create the uploads directories named by UPLOADS_DIR and STRAPI_UPLOADS_DIR,
and write .env.example and .env templates. Existing files are left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())
			res, err := setup.Run(cmd.Context(), setup.Options{
				Dir:              dir,
				UploadsDir:       cfg.UploadsDir,
				StrapiUploadsDir: cfg.StrapiUploadsDir,
				SQLFile:          cfg.SQLFile,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, p := range res.Created {
				_, _ = fmt.Fprintf(w, "created  %s\n", p)
			}
			for _, p := range res.Existing {
				_, _ = fmt.Fprintf(w, "exists   %s\n", p)
			}
			if res.SQLMissing {
				_, _ = fmt.Fprintf(w, "missing  %s (copy your dump there or set SQL_FILE)\n", cfg.SQLFile)
			}

			_, _ = fmt.Fprintln(w, "\nNext steps:")
			_, _ = fmt.Fprintln(w, "  1. Set STRAPI_API_TOKEN in .env")
			_, _ = fmt.Fprintln(w, "  2. Copy media files to", cfg.UploadsDir)
			_, _ = fmt.Fprintln(w, "  3. Run: dumpmigrate inspect")
			_, _ = fmt.Fprintln(w, "  4. Run: dumpmigrate migrate --dry-run, then dumpmigrate migrate")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write .env files into")
	return cmd
}
