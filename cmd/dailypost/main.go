// Package main provides the dailypost binary entry point.
// dailypost generates one short social post or one spoken briefing per run.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newghostisfun/dailypost/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "dailypost"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Daily social post and briefing generator",
		Long: `dailypost generates content with a text-generation API and publishes it.

Commands:
- post:     generate, validate and publish one short social post
- briefing: generate the spoken morning briefing and write the RSS feed
- check:    run the post validator on text without calling any API

Secrets come from the environment (or a .env file): OPENAI_API_KEY,
BLUESKY_HANDLE and BLUESKY_APP_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		postCmd(flags),
		briefingCmd(flags),
		checkCmd(flags),
		configCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func postCmd(flags *globalFlags) *cobra.Command {
	var (
		dryRun  bool
		profile string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Generate and publish today's post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.runPost(cmd.Context(), cmd.OutOrStdout(), profile, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate and validate but do not publish")
	cmd.Flags().StringVar(&profile, "profile", "", "Post profile (short, long); overrides config")

	return cmd
}

func briefingCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Generate the morning briefing feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.runBriefing(cmd.Context(), cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Feed output path; overrides config")

	return cmd
}

func checkCmd(flags *globalFlags) *cobra.Command {
	var (
		profile string
		special bool
	)

	cmd := &cobra.Command{
		Use:   "check [text|-]",
		Short: "Validate and normalize text offline",
		Long: `check runs the post normalizer on the given text, or on stdin when the
argument is "-" or missing. The normalized post is printed on success; a
rejection exits non-zero with the rejection kind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var text string
			if len(args) == 0 || args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			} else {
				text = args[0]
			}

			return a.runCheck(cmd.OutOrStdout(), text, profile, special)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Post profile (short, long); overrides config")
	cmd.Flags().BoolVar(&special, "special", false, "Check against the special (flagged day) prefix")

	return cmd
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default user config if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.showConfig(cmd.OutOrStdout())
		},
	})

	return cmd
}
