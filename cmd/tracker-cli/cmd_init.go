package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/persistorai/tracker/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	var (
		initURL     string
		initProfile string
		skipCheck   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up tracker CLI configuration",
		Long:  "Interactive setup wizard that creates ~/.tracker/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initURL, initProfile, initURL != "", skipCheck)
		},
	}

	cmd.Flags().StringVar(&initURL, "server", "", "Server URL (non-interactive mode)")
	cmd.Flags().StringVar(&initProfile, "name", "default", "Profile name to write")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Do not test the connection")
	return cmd
}

func runInit(url, profile string, nonInteractive, skipCheck bool) error {
	if !nonInteractive {
		fmt.Println("\n  Tracker Setup")
		fmt.Println("  ─────────────")
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)

		fmt.Printf("  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		url = strings.TrimSpace(line)
	}

	if url == "" {
		url = defaultURL
	}

	if !skipCheck {
		if !nonInteractive {
			fmt.Print("\n  Testing connection... ")
		}

		ver, err := testConnection(url)
		if err != nil {
			if !nonInteractive {
				fmt.Println("✗")
			}
			return fmt.Errorf("connection failed: %w", err)
		}

		if !nonInteractive {
			fmt.Printf("✓ Connected (v%s)\n", ver)
		}
	}

	cfgPath, err := writeConfig(profile, url)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if nonInteractive {
		fmt.Printf("Config saved to %s\n", cfgPath)
	} else {
		fmt.Printf("\n  ✓ Config saved to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("  Next steps:")
		fmt.Println("    tracker doctor       # Full diagnostic check")
		fmt.Println("    tracker issue list   # Browse issues")
		fmt.Println("    tracker --help       # See all commands")
		fmt.Println()
	}

	return nil
}

func testConnection(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.New(url).Health(ctx)
	if err != nil {
		return "", err
	}
	if health.Version == "" {
		return "unknown", nil
	}
	return health.Version, nil
}

// writeConfig stores url under profile, keeping any other profiles already on disk.
func writeConfig(profile, url string) (string, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		return "", err
	}

	cfg, err := loadConfigFile()
	if err != nil {
		cfg = &configFile{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}
	cfg.Profiles[profile] = configProfile{URL: url}
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = profile
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}

	return cfgPath, nil
}
