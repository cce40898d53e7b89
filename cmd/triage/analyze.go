package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigilab/incident-triage/internal/config"
	"github.com/vigilab/incident-triage/internal/engine"
	"github.com/vigilab/incident-triage/internal/model"
	"github.com/vigilab/incident-triage/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze one log excerpt from a file or stdin",
		Long: `Reads security log text from the given file (or stdin when omitted),
runs the classification pipeline, and prints the JSON report to stdout.
An optional threat-intelligence report can be supplied with --intel.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("title", "", "incident title")
	cmd.Flags().String("severity", "medium", "declared severity (critical, high, medium, low, informational)")
	cmd.Flags().String("intel", "", "path to a JSON threat report to correlate against")
	cmd.Flags().StringP("output", "o", "", "write the report to a timestamped directory under this path")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	title, _ := cmd.Flags().GetString("title")
	severity, _ := cmd.Flags().GetString("severity")
	intelPath, _ := cmd.Flags().GetString("intel")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logText, err := readLogText(args)
	if err != nil {
		return err
	}

	var threatReport *model.ThreatReport
	if intelPath != "" {
		data, err := os.ReadFile(intelPath)
		if err != nil {
			return fmt.Errorf("read intel report: %w", err)
		}
		threatReport = &model.ThreatReport{}
		if err := json.Unmarshal(data, threatReport); err != nil {
			return fmt.Errorf("decode intel report: %w", err)
		}
	}

	in := model.Input{
		Title:            title,
		LogText:          logText,
		DeclaredSeverity: model.ParseSeverity(severity),
	}

	eng := engine.New(cfg, verbose)
	rep := eng.Analyze(cmd.Context(), in, threatReport)

	if outputDir != "" {
		writer, err := report.NewWriter(report.GenerateOutputDir(outputDir))
		if err != nil {
			return err
		}
		path, err := writer.Save(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[*] Report written: %s\n", path)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// readLogText reads the incident text from the file argument or stdin.
func readLogText(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read log file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no log text provided (pass a file or pipe to stdin)")
	}
	return string(data), nil
}

// loadConfig loads the config file when given, the defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
