package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/persistorai/tracker/client"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nTracker Doctor")
	fmt.Println("==============")

	var results []checkResult

	// 1. Config file.
	cfgPath, _ := configPath()
	cfg, cfgErr := loadConfigFile()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath,
			Hint:   "Run: tracker init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	url := doctorResolveURL(cfg)
	results = append(results, checkResult{Name: "Server URL", Passed: true, Detail: url})

	// 2. Server reachable and database connected.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.New(url).Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false,
			Detail: url,
			Hint:   fmt.Sprintf("Is the tracker server running?\n   Error: %v", err),
		})
	} else {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: true, Detail: fmt.Sprintf("v%s", health.Version),
		})
		results = append(results, checkResult{
			Name:   "Database",
			Passed: health.Database == "connected",
			Detail: health.Database,
			Hint:   "Check DATABASE_URL on the server",
		})
	}

	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.Passed {
			if r.Detail != "" {
				fmt.Printf("✅ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("✅ %s\n", r.Name)
			}
			continue
		}

		allPassed = false
		if r.Detail != "" {
			fmt.Printf("❌ %s: %s\n", r.Name, r.Detail)
		} else {
			fmt.Printf("❌ %s\n", r.Name)
		}
		if r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("❌ Some checks failed.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println("✅ All checks passed!")
	return nil
}

// doctorResolveURL applies the same precedence as resolveConfig without mutating flags.
func doctorResolveURL(cfg *configFile) string {
	if flagURL != defaultURL {
		return flagURL
	}
	if v := os.Getenv("TRACKER_URL"); v != "" {
		return v
	}
	if cfg != nil {
		profile := flagProfile
		if profile == "" {
			profile = os.Getenv("TRACKER_PROFILE")
		}
		if u := cfg.profileURL(profile); u != "" {
			return u
		}
	}
	return defaultURL
}
