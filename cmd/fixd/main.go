// Package main implements the fixd CLI: run a failing command, diagnose it,
// and optionally apply a suggested fix.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/config"
	"github.com/fyrsmithlabs/fixd/internal/executor"
	"github.com/fyrsmithlabs/fixd/internal/fix"
	"github.com/fyrsmithlabs/fixd/internal/history"
	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/ollama"
	"github.com/fyrsmithlabs/fixd/internal/session"
	"github.com/fyrsmithlabs/fixd/internal/ui"
)

var (
	configPath string
	modelFlag  string
	hostFlag   string
	autoYes    bool
	verbose    bool

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Failure(err.Error()))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fixd",
	Short: "Diagnose and fix failing shell commands with a local model",
	Long: `fixd runs a shell command, and when it fails, classifies the error,
asks a local Ollama model to explain it, and proposes fixes you can apply.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/fixd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override the configured model")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "override the Ollama server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	fixCmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "apply the top fix without asking")
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(modelsCmd)
}

// fixCmd runs a command (or the last history entry) and debugs a failure.
var fixCmd = &cobra.Command{
	Use:   "fix [command...]",
	Short: "Run a command and debug it if it fails",
	Long: `Run a command and, if it exits nonzero, diagnose the failure and
suggest fixes. With no arguments the last command from your shell history
is re-run.

Examples:
  # Debug an explicit command
  fixd fix -- npm start

  # Re-run and debug the last command from shell history
  fixd fix

  # Apply the top suggestion without confirmation
  fixd fix -y -- node app.js`,
	RunE: runFix,
}

// modelsCmd lists models present on the local Ollama server.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the local Ollama server",
	RunE:  runModels,
}

// setup loads config and builds the logger shared by both commands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if modelFlag != "" {
		cfg.Ollama.Model = modelFlag
	}
	if hostFlag != "" {
		cfg.Ollama.Host = hostFlag
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newGateway(cfg *config.Config, logger *zap.Logger) *ollama.Client {
	return ollama.NewClient(ollama.Config{
		Host:        cfg.Ollama.Host,
		Model:       cfg.Ollama.Model,
		Temperature: cfg.Ollama.Temperature,
		MaxTokens:   cfg.Ollama.MaxTokens,
		Timeout:     cfg.Ollama.Timeout,
	}, logger)
}

func runFix(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	command := strings.Join(args, " ")
	if command == "" {
		last, ok := history.NewResolver().LastCommand()
		if !ok {
			return fmt.Errorf("no command given and no shell history found")
		}
		command = last
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	exec := executor.New(logger)
	fmt.Printf("Running: %s\n", command)
	res := exec.Run(ctx, command, cwd)
	fmt.Print(res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)

	if res.ExitCode == 0 {
		fmt.Println(ui.Success("command succeeded"))
		return nil
	}
	fmt.Println(ui.Failure(fmt.Sprintf("exit code %d", res.ExitCode)))

	gateway := newGateway(cfg, logger)
	store := session.NewStore()
	synth := fix.NewService(gateway, logger)
	applier := fix.NewApplier(exec, os.Stdout, logger)
	svc, err := session.NewService(store, gateway, synth, applier, cfg.Ollama.Model, logger)
	if err != nil {
		return err
	}

	if err := svc.Initialize(ctx, func(p ollama.PullProgress) {
		fmt.Print(ui.PullProgress(p))
	}); err != nil {
		return err
	}

	id := svc.CreateSession(res.DebugContext(command, cwd))

	diag, err := svc.AnalyzeError(ctx, id)
	if err != nil {
		return err
	}
	if diag == nil {
		fmt.Println("The command failed but produced no output to diagnose.")
		return nil
	}
	fmt.Println(ui.Diagnosis(diag))

	fixes, err := svc.GenerateFixes(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(ui.Fixes(fixes))
	if len(fixes) == 0 {
		return nil
	}

	index, ok := chooseFix(len(fixes))
	if !ok {
		return nil
	}
	if err := svc.ApplyFix(ctx, id, index); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	fmt.Printf("Re-running: %s\n", command)
	verify := exec.Run(ctx, command, cwd)
	fmt.Print(verify.Stdout)
	fmt.Fprint(os.Stderr, verify.Stderr)
	if verify.ExitCode == 0 {
		fmt.Println(ui.Success("command now succeeds"))
		return nil
	}
	fmt.Println(ui.Failure(fmt.Sprintf("command still fails (exit code %d)", verify.ExitCode)))
	return nil
}

// chooseFix picks a fix index, either automatically (-y) or interactively.
// ok is false when the user declines.
func chooseFix(count int) (int, bool) {
	if autoYes {
		return 0, true
	}
	fmt.Printf("Apply a fix [1-%d], or press enter to skip: ", count)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return 0, false
	}
	input := strings.TrimSpace(scanner.Text())
	if input == "" {
		return 0, false
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > count {
		fmt.Println("Invalid selection, skipping.")
		return 0, false
	}
	return n - 1, true
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gateway := newGateway(cfg, logger)
	if !gateway.IsReachable(cmd.Context()) {
		return fmt.Errorf("ollama server at %s is not reachable", cfg.Ollama.Host)
	}
	models, err := gateway.ListLocalModels(cmd.Context())
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No local models found.")
		return nil
	}
	for _, m := range models {
		marker := "  "
		if strings.TrimSuffix(m, ":latest") == strings.TrimSuffix(cfg.Ollama.Model, ":latest") {
			marker = "* "
		}
		fmt.Println(marker + m)
	}
	return nil
}
