package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/persistorai/tracker/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient   *client.Client
	flagURL     string
	flagFmt     string
	flagProfile string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("tracker version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("tracker version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL string `yaml:"url"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL string `yaml:"url"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tracker",
		Short:   "Tracker CLI for issues, bulk status changes and CSV imports",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Tracker server URL (env: TRACKER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Config profile (env: TRACKER_PROFILE)")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newIssueCmd())
	rootCmd.AddCommand(newBulkStatusCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newLabelCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newStatsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tracker", "config.yaml"), nil
}

func loadConfigFile() (*configFile, error) {
	cfgPath, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
	}
	return &cfg, nil
}

// profileURL returns the URL of the selected profile, falling back to the flat url key.
func (c *configFile) profileURL(profile string) string {
	if profile == "" {
		profile = c.ActiveProfile
	}
	if profile == "" {
		profile = "default"
	}
	if p, ok := c.Profiles[profile]; ok && p.URL != "" {
		return p.URL
	}
	return c.URL
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL != defaultURL {
		return
	}
	if v := os.Getenv("TRACKER_URL"); v != "" {
		flagURL = v
		return
	}

	cfg, err := loadConfigFile()
	if err != nil {
		return
	}
	profile := flagProfile
	if profile == "" {
		profile = os.Getenv("TRACKER_PROFILE")
	}
	if u := cfg.profileURL(profile); u != "" {
		flagURL = u
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func validStatus(s string) bool {
	switch s {
	case client.StatusOpen, client.StatusInProgress, client.StatusResolved, client.StatusClosed:
		return true
	}
	return false
}

// idArgs validates that exactly n positional args are positive integer ids.
func idArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		for _, a := range args {
			if _, err := parseID(a); err != nil {
				return err
			}
		}
		return nil
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
