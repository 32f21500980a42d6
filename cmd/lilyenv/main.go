package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/frederic-klein/lilyenv/internal/downloader"
	"github.com/frederic-klein/lilyenv/internal/installer"
	"github.com/frederic-klein/lilyenv/internal/layout"
	"github.com/frederic-klein/lilyenv/internal/provider"
	"github.com/frederic-klein/lilyenv/internal/python"
	"github.com/frederic-klein/lilyenv/internal/venv"
)

var (
	configPath string
	verbose    bool
)

const shellConfig = `# Add to your shell configuration file to show the active
# virtualenv in your prompt:
if [ -n "$VIRTUAL_ENV_PROMPT" ]; then
    PS1="($VIRTUAL_ENV_PROMPT) $PS1"
fi`

func main() {
	rootCmd := &cobra.Command{
		Use:           "lilyenv",
		Short:         "Manage Python versions and virtualenvs",
		Long:          "Lilyenv downloads pre-built CPython and PyPy distributions and creates per-project virtualenvs with them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default <user-config>/lilyenv/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	downloadCmd := &cobra.Command{
		Use:   "download [version]",
		Short: "Download a Python version, or list all versions available to download",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDownload,
	}

	virtualenvCmd := &cobra.Command{
		Use:   "virtualenv <version> <project>",
		Short: "Create a virtualenv for a Python version and a project",
		Args:  cobra.ExactArgs(2),
		RunE:  runVirtualenv,
	}

	activateCmd := &cobra.Command{
		Use:   "activate <version> <project>",
		Short: "Activate a project's virtualenv in a subshell",
		Args:  cobra.ExactArgs(2),
		RunE:  runActivate,
	}

	shellConfigCmd := &cobra.Command{
		Use:   "shell-config",
		Short: "Show information to include in a shell config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(shellConfig)
			return nil
		},
	}

	rootCmd.AddCommand(downloadCmd, virtualenvCmd, activateCmd, shellConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (layout.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = layout.DefaultConfigPath()
		if err != nil {
			return layout.Config{}, err
		}
	}
	return layout.LoadConfig(path)
}

// setup builds the configured component graph shared by all commands.
func setup() (*installer.Installer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := func(format string, args ...interface{}) {
		if verbose {
			fmt.Printf(format+"\n", args...)
		}
	}

	l := layout.NewLayout(cfg)
	cpython := provider.NewCPython(cfg.CPython.ReleasesURL, cfg.Platform)
	pypy := provider.NewPyPy(cfg.PyPy.IndexURL, cfg.PyPy.DownloadURL)
	downloads := downloader.New(l.DownloadsDir())
	return installer.New(l, cpython, pypy, downloads, log), nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listReleases()
	}

	version, err := python.ParseUserInput(args[0])
	if err != nil {
		return err
	}
	ins, err := setup()
	if err != nil {
		return err
	}
	_, err = ins.EnsureInstalled(version)
	return err
}

func listReleases() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cpython := provider.NewCPython(cfg.CPython.ReleasesURL, cfg.Platform)
	releases, skipped, err := cpython.List()
	if err != nil {
		return err
	}
	for _, skip := range skipped {
		fmt.Fprintf(os.Stderr, "warning: skipping release: %v\n", skip)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return python.Compare(releases[i].Version, releases[j].Version) < 0
	})
	for _, release := range releases {
		fmt.Printf("%s (%s)\n", release.Version, release.ReleaseTag)
	}
	return nil
}

func runVirtualenv(cmd *cobra.Command, args []string) error {
	version, err := python.ParseUserInput(args[0])
	if err != nil {
		return err
	}
	ins, err := setup()
	if err != nil {
		return err
	}
	_, err = ins.EnsureVirtualenv(version, args[1])
	return err
}

func runActivate(cmd *cobra.Command, args []string) error {
	version, err := python.ParseUserInput(args[0])
	if err != nil {
		return err
	}
	ins, err := setup()
	if err != nil {
		return err
	}
	venvDir, err := ins.EnsureVirtualenv(version, args[1])
	if err != nil {
		return err
	}
	return venv.Activate(venvDir, args[1], version)
}
