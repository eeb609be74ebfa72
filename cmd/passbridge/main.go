// ABOUTME: Entry point for the passbridge CLI
// ABOUTME: Issues wallet passes across the built-in profiles and drives the demo flow

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/sbcwallet/passbridge/internal/apple"
	"github.com/sbcwallet/passbridge/internal/config"
	"github.com/sbcwallet/passbridge/internal/dedupe"
	"github.com/sbcwallet/passbridge/internal/google"
	"github.com/sbcwallet/passbridge/internal/loyalty"
	"github.com/sbcwallet/passbridge/internal/pass"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
	"github.com/sbcwallet/passbridge/internal/wallet"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                          _          _     _
  _ __   __ _ ___ ___| |__  _ __(_) __| | __ _  ___
 | '_ \ / _' / __/ __| '_ \| '__| |/ _' |/ _' |/ _ \
 | |_) | (_| \__ \__ \ |_) | |  | | (_| | (_| |  __/
 | .__/ \__,_|___/___/_.__/|_|  |_|\__,_|\__, |\___|
 |_|                                     |___/
`

// getConfigPath returns the path to the passbridge config file.
// Priority: PASSBRIDGE_CONFIG env var > XDG_CONFIG_HOME/passbridge/passbridge.yaml > ~/.config/passbridge/passbridge.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PASSBRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "passbridge.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "passbridge", "passbridge.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: passbridge <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  demo                       Run the end-to-end demo across all profiles")
		fmt.Println("  issue --profile NAME ...   Issue a parent pass and one child under it")
		fmt.Println("  status --id ID --to STATUS Move a pass through its status flow")
		fmt.Println("  profiles                   List the built-in pass profiles")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "demo":
		err = runDemo(ctx)
	case "issue":
		err = runIssue(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "profiles":
		err = runProfiles()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, degrading to credential-less
// defaults when no file exists so the demo runs out of the box.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), "(defaults)", nil
		}
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// buildService wires the full stack from configuration.
func buildService(cfg *config.Config, logger *slog.Logger) (*wallet.Service, error) {
	registry := profile.NewRegistry()
	if cfg.Profiles.OverridesPath != "" {
		overridden, err := registry.LoadOverrides(cfg.Profiles.OverridesPath)
		if err != nil {
			return nil, fmt.Errorf("loading profile overrides: %w", err)
		}
		registry = overridden
	}

	st := store.NewMemoryStore()
	engine := pass.New(st, registry, logger)
	loyaltySvc := loyalty.New(engine, st, logger)

	signer, err := apple.NewSigner(cfg.Apple)
	if err != nil {
		return nil, fmt.Errorf("loading apple signing identity: %w", err)
	}
	appleR := apple.NewRenderer(cfg.Apple, signer, logger)

	account, err := config.LoadServiceAccount(cfg.Google.ServiceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("loading google service account: %w", err)
	}
	googleR := google.NewRenderer(cfg.Google, account, logger)

	cache := dedupe.New(cfg.Render.CacheTTL, cfg.Render.CacheSize)

	return wallet.New(engine, loyaltySvc, registry, appleR, googleR, cache, logger), nil
}

func runDemo(ctx context.Context) error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config: %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Issuer: %s\n\n", cfg.Google.IssuerID)

	logger := setupLogger(cfg.Logging)
	svc, err := buildService(cfg, logger)
	if err != nil {
		return err
	}

	opts := wallet.IssueOptions{Apple: true, Google: true}

	// Logistics: a yard schedule with one transport order walking the
	// status flow.
	cyan.Println("-- logistics --")
	schedule, err := svc.IssueParent(ctx, pass.ParentInput{
		Profile:     profile.Logistics,
		ProgramName: "Morning Yard",
		Site:        "Dock 4",
		Capacity:    20,
	}, opts)
	if err != nil {
		return err
	}
	printIssued(schedule)

	order, err := svc.IssueChild(ctx, pass.ChildInput{
		Profile:  profile.Logistics,
		ParentID: schedule.Pass.ID,
		Plate:    "WGM-4412",
		Carrier:  "Haulage Co",
	}, opts)
	if err != nil {
		return err
	}
	printIssued(order)

	for _, status := range []string{"PRESENCE", "SCALE", "OPS", "EXITED"} {
		updated, err := svc.UpdateStatus(ctx, order.Pass.ID, status, opts)
		if err != nil {
			return err
		}
		fmt.Printf("  %s → %s\n", updated.Pass.ID, updated.Pass.Status)
	}

	// Healthcare: an agenda with one patient visit.
	cyan.Println("-- healthcare --")
	agenda, err := svc.IssueParent(ctx, pass.ParentInput{
		Profile:     profile.Healthcare,
		ProgramName: "Day Surgery",
		Site:        "Clinic North",
		Capacity:    8,
	}, opts)
	if err != nil {
		return err
	}
	printIssued(agenda)

	visit, err := svc.IssueChild(ctx, pass.ChildInput{
		Profile:     profile.Healthcare,
		ParentID:    agenda.Pass.ID,
		PatientName: "Jordan Alvarez",
		Procedure:   "Radiography",
	}, opts)
	if err != nil {
		return err
	}
	printIssued(visit)

	// Loyalty: business, customer, program, card, points.
	cyan.Println("-- loyalty --")
	biz, err := svc.Loyalty().CreateBusiness(ctx, loyalty.BusinessInput{Name: "Seabright Coffee"})
	if err != nil {
		return err
	}
	customer, err := svc.Loyalty().CreateCustomerAccount(ctx, loyalty.CustomerInput{
		BusinessID: biz.ID,
		FullName:   "Dana Reyes",
	})
	if err != nil {
		return err
	}
	if _, err := svc.Loyalty().CreateLoyaltyProgram(ctx, loyalty.ProgramInput{BusinessID: biz.ID}); err != nil {
		return err
	}
	card, err := svc.IssueLoyaltyCard(ctx, loyalty.CardInput{
		BusinessID:    biz.ID,
		CustomerID:    customer.ID,
		InitialPoints: 50,
	}, opts)
	if err != nil {
		return err
	}
	printIssued(card)

	topped, err := svc.UpdatePoints(ctx, loyalty.PointsInput{
		PassID: card.Pass.ID,
		Delta:  30,
	}, opts)
	if err != nil {
		return err
	}
	fmt.Printf("  %s points: %d (member %s)\n", topped.Pass.ID, topped.Pass.Points, topped.Pass.MemberID)

	return nil
}

func runIssue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	profileName := fs.String("profile", profile.Logistics, "pass profile (logistics, healthcare, loyalty)")
	programName := fs.String("program", "", "program name for the parent pass")
	site := fs.String("site", "", "site or facility")
	capacity := fs.Int("capacity", 10, "parent capacity")
	plate := fs.String("plate", "", "vehicle plate (logistics child)")
	patient := fs.String("patient", "", "patient name (healthcare child)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)
	svc, err := buildService(cfg, logger)
	if err != nil {
		return err
	}

	opts := wallet.IssueOptions{Apple: true, Google: true}

	parent, err := svc.IssueParent(ctx, pass.ParentInput{
		Profile:     *profileName,
		ProgramName: *programName,
		Site:        *site,
		Capacity:    *capacity,
	}, opts)
	if err != nil {
		return err
	}
	printIssued(parent)

	child, err := svc.IssueChild(ctx, pass.ChildInput{
		Profile:     *profileName,
		ParentID:    parent.Pass.ID,
		Plate:       *plate,
		PatientName: *patient,
	}, opts)
	if err != nil {
		return err
	}
	printIssued(child)
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "pass id")
	to := fs.String("to", "", "target status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *to == "" {
		return fmt.Errorf("status requires --id and --to")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)
	svc, err := buildService(cfg, logger)
	if err != nil {
		return err
	}

	updated, err := svc.UpdateStatus(ctx, *id, *to, wallet.IssueOptions{Google: true})
	if err != nil {
		return err
	}
	fmt.Printf("%s → %s\n", updated.Pass.ID, updated.Pass.Status)
	return nil
}

func runProfiles() error {
	registry := profile.NewRegistry()

	cyan := color.New(color.FgCyan)
	for _, name := range registry.List() {
		prof, err := registry.Get(name)
		if err != nil {
			return err
		}
		cyan.Printf("%s\n", name)
		fmt.Printf("  prefix: %s\n", prof.IDPrefix)
		fmt.Printf("  flow:   %s\n", strings.Join(prof.StatusFlow, " → "))
	}
	return nil
}

// printIssued prints one issued pass with its render outcomes.
func printIssued(issued *wallet.Issued) {
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	green.Printf("  %s", issued.Pass.ID)
	fmt.Printf(" [%s/%s] %s\n", issued.Pass.Profile, issued.Pass.Kind, issued.Pass.Status)

	if len(issued.Pkpass) > 0 {
		fmt.Printf("    pkpass:   %d bytes\n", len(issued.Pkpass))
	} else {
		gray.Println("    pkpass:   (not rendered)")
	}
	if issued.SaveURL != "" {
		fmt.Printf("    save url: %s\n", truncate(issued.SaveURL, 72))
	} else if issued.ClassID != "" {
		fmt.Printf("    class:    %s\n", issued.ClassID)
	} else {
		gray.Println("    google:   (not rendered)")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
