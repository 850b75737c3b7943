package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"insight-exporter/internal/di"
	"insight-exporter/internal/infrastructure/env"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "exporter",
		Short: "Export dashboard tables to CSV or PDF",
		Long: `insight-exporter opens a browser dashboard, finds every data table on it
(including tables hidden behind inactive tabs) and exports exactly what the
page displays to CSV or PDF files, or the clipboard.

The page can come from a live Chrome instance (--url) or from a saved HTML
snapshot (--from-file).`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./exporter.yaml)")
	flags.String("url", "", "dashboard URL to open in Chrome")
	flags.String("from-file", "", "read the page from a saved HTML snapshot instead of a browser")
	flags.Bool("headless", true, "run Chrome without a visible window")
	flags.Bool("devtools", false, "open DevTools in the spawned browser")
	flags.Duration("nav-timeout", 10*time.Second, "page navigation timeout")
	flags.Duration("settle-quiet", 300*time.Millisecond, "quiet period before a freshly opened tab is scanned")
	flags.Duration("settle-ceiling", 1200*time.Millisecond, "upper bound on waiting for a noisy page to settle")
	flags.Int("max-tab-depth", 5, "recursion limit for nested tab widgets")
	flags.String("download-dir", "downloads", "directory export files are written to")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-file", "", "also write logs to this file")

	_ = viper.BindPFlag("page.url", flags.Lookup("url"))
	_ = viper.BindPFlag("page.snapshot", flags.Lookup("from-file"))
	_ = viper.BindPFlag("browser.headless", flags.Lookup("headless"))
	_ = viper.BindPFlag("browser.devtools", flags.Lookup("devtools"))
	_ = viper.BindPFlag("browser.nav_timeout", flags.Lookup("nav-timeout"))
	_ = viper.BindPFlag("collect.settle_quiet", flags.Lookup("settle-quiet"))
	_ = viper.BindPFlag("collect.settle_ceiling", flags.Lookup("settle-ceiling"))
	_ = viper.BindPFlag("collect.max_tab_depth", flags.Lookup("max-tab-depth"))
	_ = viper.BindPFlag("export.download_dir", flags.Lookup("download-dir"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("logging.file", flags.Lookup("log-file"))

	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("exporter")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EXPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// newContainer wires the application from viper state plus the process
// environment (a .env file is picked up if present).
func newContainer(ctx context.Context) (*di.Container, error) {
	envs := env.NewEnvService()
	return di.NewContainer(ctx, di.Config{
		PageURL:       viper.GetString("page.url"),
		SnapshotPath:  viper.GetString("page.snapshot"),
		ChromeBin:     envs.Get("EXPORTER_CHROME_BIN"),
		Headless:      viper.GetBool("browser.headless"),
		DevTools:      viper.GetBool("browser.devtools"),
		NavTimeout:    viper.GetDuration("browser.nav_timeout"),
		SettleQuiet:   viper.GetDuration("collect.settle_quiet"),
		SettleCeiling: viper.GetDuration("collect.settle_ceiling"),
		MaxTabDepth:   viper.GetInt("collect.max_tab_depth"),
		DownloadDir:   viper.GetString("export.download_dir"),
		LogLevel:      viper.GetString("logging.level"),
		LogFormat:     viper.GetString("logging.format"),
		LogFile:       viper.GetString("logging.file"),
	})
}
