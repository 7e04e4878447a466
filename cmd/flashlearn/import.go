package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import [path | git-url]",
	Short: "Import Markdown flashcards into a user's collection",
	Long: "Import parses Q:/A: flashcards from every .md file under a local directory " +
		"or a git repository. Cards the user already has are skipped. With --all, " +
		"every source previously imported for the user is synced again.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

func init() {
	importCmd.Flags().String("user", "", "email of the user who owns the imported cards")
	importCmd.Flags().Bool("all", false, "sync every source of the user")
	importCmd.MarkFlagRequired("user")
}

func runImport(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if all == (len(args) == 1) {
		return errors.New("give either a path or git URL, or --all")
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	email, _ := cmd.Flags().GetString("user")
	userID, err := lookupUser(cmd.Context(), db, email)
	if err != nil {
		return err
	}

	im := importer.New(db, cfg.ReposDir, logger).WithProgress(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	if all {
		reports, err := im.ImportAll(cmd.Context(), userID)
		for _, r := range reports {
			printReport(out, r)
		}
		return err
	}

	report, err := im.Import(cmd.Context(), userID, args[0])
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

func lookupUser(ctx context.Context, db *storage.DB, email string) (domain.UserID, error) {
	u, err := db.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, fmt.Errorf("no user with email %q", email)
	}
	return u.ID, nil
}

func printReport(w io.Writer, r *importer.Report) {
	fmt.Fprintf(w, "%s: %d files, %d cards parsed, %d new, %d duplicates, %d incomplete.\n",
		r.Source, r.Files, r.Parsed, r.Inserted, r.Duplicates, r.Incomplete)
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "- %s\n", e)
		}
	}
}
