// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
	"facility-ml/internal/training/report"
	"facility-ml/pkg/registry"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	defaultPath := filepath.Join(cfg.Models.Dir, cfg.Models.RegistryFile)

	listPath := listCmd.String("path", defaultPath, "Path to registry file")
	showPath := showCmd.String("path", defaultPath, "Path to registry file")
	idShow := showCmd.String("id", "", "Model ID (e.g., risk)")
	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")
	modelsDir := validateCmd.String("models", cfg.Models.Dir, "Directory holding the artifacts")
	prefix := statusCmd.String("prefix", cfg.Database.Redis.KeyPrefix, "Redis key prefix")
	removePath := removeCmd.String("path", defaultPath, "Path to registry file")
	idRemove := removeCmd.String("id", "", "Model ID to remove")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listModels(*listPath); err != nil {
			fmt.Printf("Error listing models: %v\n", err)
			os.Exit(1)
		}

	case "show":
		showCmd.Parse(os.Args[2:])
		if *idShow == "" {
			fmt.Println("Error: id is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		if err := showModel(*showPath, *idShow); err != nil {
			fmt.Printf("Error showing model: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath, *modelsDir); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "remove":
		removeCmd.Parse(os.Args[2:])
		if *idRemove == "" {
			fmt.Println("Error: id is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		if err := removeModel(*removePath, *idRemove); err != nil {
			fmt.Printf("Error removing model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed model: %s\n", *idRemove)

	case "status":
		statusCmd.Parse(os.Args[2:])
		if err := showStatus(cfg.Database.Redis, *prefix); err != nil {
			fmt.Printf("Error reading run reports: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func listModels(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	fmt.Printf("Registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
	for _, m := range reg.Models {
		fmt.Printf("  %-16s %-15s trained %s  %s\n", m.ID, m.Task, m.TrainedAt, formatMetrics(m.Metrics))
	}
	return nil
}

func showModel(path, id string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	m, ok := reg.Find(id)
	if !ok {
		return fmt.Errorf("model with ID %s not found", id)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func validateRegistry(path, modelsDir string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Models) == 0 {
		return fmt.Errorf("registry contains no models")
	}
	store := artifacts.NewStore(modelsDir)
	if err := reg.Validate(store.Exists); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d models.\n", len(reg.Models))
	return nil
}

func removeModel(path, id string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if !reg.Remove(id, time.Now()) {
		return fmt.Errorf("model with ID %s not found", id)
	}
	return reg.Save(path)
}

func showStatus(cfg config.RedisConfig, prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := report.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb == nil {
		return fmt.Errorf("database.redis.address is not configured")
	}
	defer rdb.Close()

	reports, err := report.Latest(ctx, rdb, prefix)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No run reports found.")
		return nil
	}
	for _, r := range reports {
		line := fmt.Sprintf("  %-16s %-8s %s  %.1fs", r.Model, r.Status, r.StartedAt.Format(time.RFC3339), r.Duration)
		if r.Reason != "" {
			line += "  " + r.Reason
		}
		fmt.Println(line)
	}
	return nil
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.3f", k, m[k])
	}
	return strings.Join(parts, " ")
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  list      List the models in the registry
  show      Print one model entry
  validate  Validate the registry and check every artifact exists
  remove    Remove a model entry
  status    Show the latest training run reports from Redis
  help      Show this help message

Examples:
  registry-updater list
  registry-updater show -id risk
  registry-updater validate -path models/registry.json -models models
  registry-updater remove -id demand
  registry-updater status -prefix facility-ml

Use 'registry-updater <command> -h' for more information about a command.
`)
}
