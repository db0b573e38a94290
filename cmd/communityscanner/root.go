package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"CommunityScanner/internal/app"
	"CommunityScanner/internal/config"
	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/logging"
)

// cli carries the persistent flags shared by every subcommand.
type cli struct {
	configPath string
	options    []app.Option
}

func newRootCommand(opts ...app.Option) *cobra.Command {
	c := &cli{options: opts}

	root := &cobra.Command{
		Use:           "communityscanner",
		Short:         "Find online communities by keyword and size and export them to a spreadsheet.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (default $COMMUNITY_SCANNER_CONFIG)")

	root.AddCommand(c.discordCommand(), c.redditCommand(), c.credentialsCommand())
	return root
}

// searchFlags are the inputs of a platform search.
type searchFlags struct {
	keyword    string
	output     string
	minSize    int
	maxSize    int
	maxAgeDays int
	limit      int
	maxLoads   int
	debug      bool
}

func (f searchFlags) criteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		Keyword:     f.keyword,
		MinSize:     f.minSize,
		MaxSize:     f.maxSize,
		MaxAgeDays:  f.maxAgeDays,
		ResultLimit: f.limit,
	}
}

func (c *cli) discordCommand() *cobra.Command {
	f := searchFlags{maxAgeDays: domain.NoBound}
	cmd := &cobra.Command{
		Use:   "discord",
		Short: "Search the Discord server directory",
		Example: `  communityscanner discord --keyword gaming --min-members 1000 --output servers.xlsx
  communityscanner discord --keyword art --max-loads 10 --search-limit 200 --output art.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.search(cmd, app.PlatformDiscord, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.keyword, "keyword", "", "search keyword (required)")
	flags.IntVar(&f.maxLoads, "max-loads", app.UseConfiguredLoads, `how many times to press "Load More Servers", -1 uses discord.maxLoads from config`)
	flags.IntVar(&f.minSize, "min-members", domain.NoBound, "minimum member count, -1 for no limit")
	flags.IntVar(&f.maxSize, "max-members", domain.NoBound, "maximum member count, -1 for no limit")
	flags.IntVar(&f.limit, "search-limit", domain.NoBound, "stop after examining this many servers, -1 for no limit")
	flags.StringVar(&f.output, "output", "", "output .xlsx file (required)")
	flags.BoolVar(&f.debug, "debug", false, "log every filter decision")
	mustRequire(cmd, "keyword", "output")
	return cmd
}

func (c *cli) redditCommand() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "reddit",
		Short: "Search subreddits through the Reddit API",
		Example: `  communityscanner reddit --keyword golang --min-subs 5000 --max-age-days 7 --output subs.xlsx
  communityscanner reddit --keyword cooking --search-limit 500 --output cooking.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.search(cmd, app.PlatformReddit, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.keyword, "keyword", "", "keyword matched against title and description (required)")
	flags.IntVar(&f.minSize, "min-subs", domain.NoBound, "minimum subscriber count, -1 for no limit")
	flags.IntVar(&f.maxSize, "max-subs", domain.NoBound, "maximum subscriber count, -1 for no limit")
	flags.IntVar(&f.maxAgeDays, "max-age-days", domain.NoBound, "maximum days since the newest post, -1 for no limit")
	flags.IntVar(&f.limit, "search-limit", domain.NoBound, "stop after examining this many subreddits, -1 for no limit")
	flags.StringVar(&f.output, "output", "", "output .xlsx file (required)")
	flags.BoolVar(&f.debug, "debug", false, "log every filter decision")
	mustRequire(cmd, "keyword", "output")
	return cmd
}

func (c *cli) credentialsCommand() *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Save Reddit API credentials, prompting for any not given as flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _ := c.newApp(cmd, false)
			path, err := application.SaveCredentials(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&creds.ClientID, "client-id", "", "Reddit app client ID")
	flags.StringVar(&creds.ClientSecret, "client-secret", "", "Reddit app client secret")
	flags.StringVar(&creds.UserAgent, "user-agent", "", "user agent sent to the Reddit API")
	return cmd
}

func (c *cli) search(cmd *cobra.Command, platform string, f searchFlags) error {
	application, logger := c.newApp(cmd, f.debug)

	report, err := application.Run(cmd.Context(), app.RunOptions{
		Platform: platform,
		Criteria: f.criteria(),
		MaxLoads: f.maxLoads,
		Output:   f.output,
		Verbose:  f.debug,
	})
	if err != nil {
		logger.Error("search failed", "platform", platform, "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	if report.Written == 0 {
		fmt.Fprintln(out, "No communities found.")
		return nil
	}
	fmt.Fprintf(out, "Successfully wrote %d communities to %s\n", report.Written, report.Output)
	return nil
}

func (c *cli) newApp(cmd *cobra.Command, debug bool) (*app.Application, *slog.Logger) {
	var cfg config.Config
	if c.configPath != "" {
		cfg = config.LoadFile(c.configPath)
	} else {
		cfg = config.Load()
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger := logging.NewWithWriter(cmd.OutOrStdout(), level)

	opts := append([]app.Option{app.WithOutput(cmd.OutOrStdout())}, c.options...)
	return app.New(cfg, logger, opts...), logger
}

func mustRequire(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
