package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"aplib-go/internal/aplib"
	"aplib-go/internal/app"
	"aplib-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App for the library at path. The
// caller must defer closeApp.
func newApp(cmd *cobra.Command, command, path string) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}

	var opts []app.Option
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		opts = append(opts, app.WithLogLevel(slog.LevelDebug))
	}

	a, err := app.NewApp(cfg, command, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	// Progress goes to stderr, and only when a person is watching.
	if term.IsTerminal(int(os.Stderr.Fd())) {
		a.SetProgress(func(kind aplib.ObjectType, done uint64) {
			fmt.Fprintf(os.Stderr, "\rloading %ss: %d", kind, done)
		})
	}
	return a, nil
}

// closeApp records the command outcome and closes a.
func closeApp(a *app.App, err *error) {
	if *err != nil {
		a.Fail()
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

var rootCmd = &cobra.Command{
	Use:          "aplib",
	Short:        "Read Aperture libraries",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Audit:       %s (enabled: %v) %s\n", cfg.Audit.Type, cfg.Audit.Enabled, cfg.Audit.DataDir)
		fmt.Printf("Sidecar:     %s %q\n", cfg.Sidecar.Type, cfg.Sidecar.Name)
		fmt.Printf("Mount Root:  %s\n", cfg.Volumes.MountRoot)
		if cfg.Metrics.TextfilePath != "" {
			fmt.Printf("Metrics:     %s\n", cfg.Metrics.TextfilePath)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info PATH",
	Short: "Show library version and model info",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "info", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.Info(cmd.OutOrStdout())
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump PATH",
	Short: "Dump every object of a library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "dump", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.Dump(cmd.Context(), cmd.OutOrStdout())
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree PATH",
	Short: "Print the folder hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		skipMasters, _ := cmd.Flags().GetBool("skip-masters")
		a, err := newApp(cmd, "tree", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.Tree(cmd.Context(), cmd.OutOrStdout(), skipMasters)
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords PATH",
	Short: "Print the keyword hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "keywords", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.Keywords(cmd.OutOrStdout())
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit PATH",
	Short: "Report parsed, skipped and ignored plist keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		save, _ := cmd.Flags().GetBool("save")
		verbose, _ := cmd.Flags().GetBool("verbose")
		a, err := newApp(cmd, "audit", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		id, err := a.Audit(cmd.Context(), cmd.OutOrStdout(), save, verbose)
		if err != nil {
			return err
		}
		if id != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved audit run %s\n", id)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history PATH",
	Short: "List saved audit runs of a library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "history", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.AuditHistory(cmd.Context(), cmd.OutOrStdout())
	},
}

var xmpCmd = &cobra.Command{
	Use:   "xmp PATH",
	Short: "Print XMP packets for versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		version, _ := cmd.Flags().GetString("version")
		a, err := newApp(cmd, "xmp", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)
		return a.XMP(cmd.Context(), cmd.OutOrStdout(), version)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Write XMP sidecars for every version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "export", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		stats, err := a.Export(cmd.Context())
		if errors.Is(err, aplib.ErrCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Export cancelled.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d sidecars written, %d versions without metadata, %d failed\n",
			stats.Written, stats.Empty, stats.Failed)
		return err
	},
}

var masterPathCmd = &cobra.Command{
	Use:   "master-path PATH UUID",
	Short: "Resolve the image file of a master",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "master-path", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		path, err := a.MasterPath(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug records")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("skip-masters", false, "Count masters and versions instead of listing them")
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().Bool("save", false, "Store the run in the audit store")
	auditCmd.Flags().BoolP("verbose", "v", false, "List every file's report")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(xmpCmd)
	xmpCmd.Flags().String("version", "", "Only the version with this uuid")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(masterPathCmd)
}
