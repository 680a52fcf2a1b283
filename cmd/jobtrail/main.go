package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/export"
	"github.com/jobtrail/jobtrail/internal/mailbox"
	"github.com/jobtrail/jobtrail/internal/notify"
	"github.com/jobtrail/jobtrail/internal/pipeline"
	"github.com/jobtrail/jobtrail/internal/store"
	"github.com/jobtrail/jobtrail/internal/web"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func resolveDBPath(cfg *config.Config) string {
	if cfg != nil && cfg.Options.DBPath != "" {
		return cfg.Options.DBPath
	}
	return store.DefaultDBPath()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "jobtrail",
		Short: "JobTrail - Job application tracking from your inbox",
		Long: `JobTrail keeps a local database of your job applications and keeps it
up to date by scanning your email inbox.

It classifies application emails (confirmations, rejections, interview
invites, assignments, offers), extracts the company and role, and
reconciles them into a single tracked record per application.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobtrail/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a new configuration file with your mailbox settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web interface",
		Long: `Start a local web server providing a browser-based dashboard.

From the dashboard you can:
- Trigger inbox scans and watch their progress
- Review, edit, and add applications
- Update statuses and export everything to CSV

The server runs locally on your machine - no data is sent to external servers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, else 8484)")

	return cmd
}

func scanCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the inbox and update the application database",
		Long: `Connect to your mailbox over IMAP, classify recent application emails,
and reconcile them into the local database.

Requires inbox configuration; run 'jobtrail init' first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (default from config, else 30)")

	return cmd
}

func listCmd() *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(statusFilter)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show applications with this status")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show application statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add an application manually",
		Long:  "Interactively add an application that did not arrive through email.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd()
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export applications to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "job_applications.csv", "Output file path")

	return cmd
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("JobTrail Configuration Setup")
	fmt.Println("============================")
	fmt.Println()

	cfg := &config.Config{}

	fmt.Println("Mailbox (scanned over IMAP)")
	fmt.Println("  Use an app password, not your main account password.")
	fmt.Println("  For Gmail: https://myaccount.google.com/apppasswords")
	fmt.Println()

	provider := prompt(reader, "Provider (gmail/outlook/imap) [gmail]: ")
	if provider == "" {
		provider = "gmail"
	}
	cfg.Inbox.Provider = provider
	if provider == "imap" {
		cfg.Inbox.Server = prompt(reader, "IMAP server: ")
		fmt.Sscanf(prompt(reader, "IMAP port [993]: "), "%d", &cfg.Inbox.Port)
		if cfg.Inbox.Port == 0 {
			cfg.Inbox.Port = 993
		}
	}
	cfg.Inbox.Email = prompt(reader, "Email address: ")
	cfg.Inbox.Password = prompt(reader, "App password: ")

	fmt.Println()
	aiKey := prompt(reader, "Anthropic API key for AI-assisted extraction (optional): ")
	cfg.AI.APIKey = aiKey

	fmt.Println()
	notifyChoice := prompt(reader, "Send a summary email after each scan? (y/N): ")
	if strings.EqualFold(notifyChoice, "y") || strings.EqualFold(notifyChoice, "yes") {
		cfg.Notify.Enabled = true
		cfg.Notify.Provider = "smtp"
		cfg.Notify.To = cfg.Inbox.Email
		cfg.Notify.From = cfg.Inbox.Email
		cfg.Notify.SMTP.Host = "smtp.gmail.com"
		cfg.Notify.SMTP.Port = 465
		cfg.Notify.SMTP.UseTLS = true
		cfg.Notify.SMTP.Username = cfg.Inbox.Email
		cfg.Notify.SMTP.Password = cfg.Inbox.Password
	}

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'jobtrail scan' to scan your inbox")
	fmt.Println("  2. Run 'jobtrail serve' to open the dashboard")

	return nil
}

// buildRunner wires mailbox, extractor, and reconciler into a scan runner
func buildRunner(cfg *config.Config, st *store.Store, days int) (*pipeline.Runner, error) {
	if err := cfg.ValidateInbox(); err != nil {
		return nil, err
	}

	target, _ := st.GetSetting("monitored_email")
	if target == "" {
		target = cfg.Inbox.Email
	}
	source := mailbox.NewSource(cfg.Inbox, target)

	var extractor pipeline.Extractor = pipeline.RuleExtractor{}
	if cfg.AI.Enabled() {
		extractor = pipeline.NewAIExtractor(cfg.AI.APIKey, cfg.AI.Model, pipeline.RuleExtractor{})
	}

	processor := pipeline.NewProcessor(st, extractor)

	if days == 0 {
		days = cfg.Options.ScanDays
	}

	runner := pipeline.NewRunner(source, processor, days)
	runner.OnComplete(func(snap pipeline.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		notify.SendScanSummary(ctx, cfg.Notify, snap)
	})
	return runner, nil
}

func runServe(port int) error {
	configPath := resolveConfigPath()
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Printf("Config exists but failed to load: %v\n", err)
			fmt.Println("Fix it or remove it and run 'jobtrail init' again.")
			return err
		}
	} else {
		cfg = &config.Config{Options: config.Options{ScanDays: 30, Port: 8484}}
	}

	st, err := store.NewStore(resolveDBPath(cfg))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	// A runner only exists when the mailbox is configured; the web UI
	// degrades to manual tracking without one.
	var runner *pipeline.Runner
	if r, err := buildRunner(cfg, st, 0); err == nil {
		runner = r
	} else {
		fmt.Printf("Inbox scanning disabled: %v\n", err)
	}

	if port == 0 {
		port = cfg.Options.Port
	}

	server, err := web.NewServer(port, cfg, configPath, st, runner)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	return server.Start()
}

func runScan(days int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.NewStore(resolveDBPath(cfg))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	runner, err := buildRunner(cfg, st, days)
	if err != nil {
		fmt.Println("Inbox scanning is not configured.")
		fmt.Println()
		fmt.Println("Add the following to your config.yaml (or run 'jobtrail init'):")
		fmt.Println()
		fmt.Println("inbox:")
		fmt.Println("  provider: gmail")
		fmt.Println("  email: your-email@gmail.com")
		fmt.Println("  password: your-app-password  # App Password, not your main password")
		return err
	}

	done := make(chan struct{})
	runner.OnComplete(func(snap pipeline.Snapshot) {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		notify.SendScanSummary(notifyCtx, cfg.Notify, snap)
		close(done)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nCancelling scan...")
		cancel()
	}()

	if _, err := runner.Start(ctx); err != nil {
		return err
	}
	<-done

	snap := runner.Status()
	if snap.Phase == pipeline.ScanFailed {
		return fmt.Errorf("scan failed: %s", snap.Error)
	}

	if err := st.SetSetting("last_scan_time", time.Now().Format("2006-01-02 15:04:05")); err != nil {
		fmt.Printf("Warning: failed to record scan time: %v\n", err)
	}

	fmt.Println()
	fmt.Println("----------------------------------------")
	fmt.Printf("Scan complete: %d emails processed\n", snap.Summary.Processed)
	fmt.Printf("  New applications: %d\n", snap.Summary.New)
	fmt.Printf("  Status updates:   %d\n", snap.Summary.Updated)
	if snap.Summary.Errors > 0 {
		fmt.Printf("  Errors:           %d\n", snap.Summary.Errors)
	}

	return nil
}

func runList(statusFilter string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	apps, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	if statusFilter != "" && !classify.ValidStatus(classify.Status(statusFilter)) {
		return fmt.Errorf("invalid status %q (valid: Pending, Rejected, Interview, Assignment, Offer)", statusFilter)
	}

	shown := 0
	for _, app := range apps {
		if statusFilter != "" && string(app.Status) != statusFilter {
			continue
		}
		fmt.Printf("%-4d %-28s %-28s %-11s %s\n",
			app.ID, truncate(app.Company, 28), truncate(app.Role, 28), app.Status, app.DateApplied)
		shown++
	}

	if shown == 0 {
		fmt.Println("No applications found. Run 'jobtrail scan' or 'jobtrail add'.")
	} else {
		fmt.Printf("\n%d application(s)\n", shown)
	}

	return nil
}

func runStatus() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	total := 0
	for _, n := range stats {
		total += n
	}

	lastScan, _ := st.GetSetting("last_scan_time")

	fmt.Println("JobTrail Statistics")
	fmt.Println("----------------------------------------")
	fmt.Printf("Total applications: %d\n", total)
	fmt.Println()
	for _, status := range []classify.Status{
		classify.StatusPending,
		classify.StatusInterview,
		classify.StatusAssignment,
		classify.StatusOffer,
		classify.StatusRejected,
	} {
		fmt.Printf("  %-11s %d\n", status, stats[status])
	}
	if lastScan != "" {
		fmt.Println()
		fmt.Printf("Last scan: %s\n", lastScan)
	}

	return nil
}

func runAdd() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Add Application")
	fmt.Println("----------------------------------------")
	fmt.Println()

	company := prompt(reader, "Company: ")
	role := prompt(reader, "Role: ")
	if company == "" || role == "" {
		return fmt.Errorf("company and role are required")
	}

	existing, err := st.FindByCompanyRole(company, role)
	if err != nil {
		return fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("an application for %s / %s already exists (id %d)", company, role, existing.ID)
	}

	today := time.Now().Format("2006-01-02")

	jobType := prompt(reader, "Job type (Remote/Hybrid/On-site) [Remote]: ")
	if jobType == "" {
		jobType = "Remote"
	}
	country := prompt(reader, "Country [Unknown]: ")
	if country == "" {
		country = "Unknown"
	}
	dateApplied := prompt(reader, fmt.Sprintf("Date applied (YYYY-MM-DD) [%s]: ", today))
	if dateApplied == "" {
		dateApplied = today
	}
	statusInput := prompt(reader, "Status (Pending/Rejected/Interview/Assignment/Offer) [Pending]: ")
	if statusInput == "" {
		statusInput = string(classify.StatusPending)
	}
	status := classify.Status(statusInput)
	if !classify.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", statusInput)
	}

	app := &store.Application{
		Company:       company,
		Role:          role,
		JobType:       jobType,
		Country:       country,
		Source:        "Manual",
		DateApplied:   dateApplied,
		ResumeVersion: role,
		Status:        status,
		StatusDate:    today,
	}
	if err := st.Insert(app); err != nil {
		return fmt.Errorf("failed to add application: %w", err)
	}

	fmt.Println()
	fmt.Printf("Added %s / %s (id %d)\n", company, role, app.ID)

	return nil
}

func runExport(out string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	apps, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	if err := export.WriteFile(out, apps); err != nil {
		return err
	}

	fmt.Printf("Exported %d application(s) to %s\n", len(apps), out)
	return nil
}

func openStore() (*store.Store, error) {
	var cfg *config.Config
	if _, err := os.Stat(resolveConfigPath()); err == nil {
		cfg, _ = config.Load(resolveConfigPath())
	}

	st, err := store.NewStore(resolveDBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func prompt(reader *bufio.Reader, message string) string {
	fmt.Print(message)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
