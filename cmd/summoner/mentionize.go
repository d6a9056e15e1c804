package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/conf"
	"github.com/summonlabs/summoner/internal/data"
)

func newMentionizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentionize <name>",
		Short: "Replace the watched user's name with a mention in the CSV sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conf.LoadFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if cfg.Watch.UserID == "" {
				return &conf.ConfigError{Field: "WATCHED_USER_ID", Message: "required"}
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			preview, _ := cmd.Flags().GetInt("preview")

			sources := []csvSource{
				{path: cfg.Data.PhrasesCSV, column: data.PhrasesColumn},
				{path: cfg.Data.HaikusCSV, column: data.HaikusColumn},
			}
			return runMentionize(cmd.OutOrStdout(), sources, args[0], domain.MentionFor(cfg.Watch.UserID), dryRun, preview, time.Now())
		},
	}

	cmd.Flags().Bool("dry-run", false, "Preview the changes without writing.")
	cmd.Flags().Int("preview", 5, "Number of changed rows shown per file.")
	return cmd
}

type csvSource struct {
	path   string
	column string
}

func runMentionize(out io.Writer, sources []csvSource, name, mention string, dryRun bool, preview int, now time.Time) error {
	matcher, err := data.NewNameMatcher(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%q will be replaced with %s\n", name, mention)

	found := 0
	for _, src := range sources {
		res, err := data.MentionizeCSV(src.path, src.column, matcher, mention, dryRun, now)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "❌ File %s not found!\n", src.path)
			continue
		}
		if err != nil {
			return err
		}
		found++

		fmt.Fprintf(out, "\n🔍 %s: %d of %d rows contain %q\n", src.path, len(res.Changed), res.Rows, name)
		for i, c := range res.Changed {
			if i >= preview {
				break
			}
			fmt.Fprintf(out, "Row %s:\nBEFORE: %s\nAFTER:  %s\n", c.Number, c.Before, c.After)
		}
		if res.Backup != "" {
			fmt.Fprintf(out, "✅ Created backup: %s\n✅ Updated %d rows\n", res.Backup, len(res.Changed))
		}
	}

	if found == 0 {
		return errors.New("no CSV files found")
	}
	if dryRun {
		fmt.Fprintln(out, "\nDry run: no files were modified.")
	} else {
		fmt.Fprintln(out, "\n💡 Run reload_messages in Discord for the changes to take effect.")
	}
	return nil
}
