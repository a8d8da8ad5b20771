package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"process-monitor/internal/common/config"
	"process-monitor/internal/common/logger"
	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/savefile"
	"process-monitor/internal/monitor/schematic"
	"process-monitor/internal/monitor/service"
)

// now подменяется в тестах.
var now = time.Now

// loadDocument читает и проверяет файл сохранения.
func loadDocument(path string) (savefile.Document, savefile.Reconciliation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return savefile.Document{}, savefile.Reconciliation{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, rec, err := savefile.Decode(data, now())
	if err != nil {
		return savefile.Document{}, savefile.Reconciliation{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, rec, nil
}

// pickReading возвращает замер index; -1 означает последний.
func pickReading(doc savefile.Document, index int) (models.ProcessData, int, error) {
	if index < 0 {
		index = len(doc.Historical) - 1
	}
	if index >= len(doc.Historical) {
		return models.ProcessData{}, 0, fmt.Errorf("reading %d out of range (file has %d)", index, len(doc.Historical))
	}
	return doc.Historical[index], index, nil
}

func writeFormatted(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q (json or yaml)", format)
}

// writeOutput пишет в файл out или в stdout команды.
func writeOutput(cmd *cobra.Command, out, content string) error {
	if out == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
	return nil
}

// ============================================================
// validate
// ============================================================

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a save file and report reading reconciliation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, rec, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK: %d process stages, %d readings, %d change requests\n",
				len(doc.Baseline.Zones), len(doc.Historical), len(doc.ChangeRequests))
			if rec.Empty() {
				fmt.Fprintln(out, "Readings match the baseline structure.")
				return nil
			}
			fmt.Fprintf(out, "%d reconciliation changes:\n", len(rec.Changes))
			for _, ch := range rec.Changes {
				fmt.Fprintf(out, "  - %s\n", ch)
			}
			return nil
		},
	}
}

// ============================================================
// status
// ============================================================

func newStatusCmd() *cobra.Command {
	var (
		reading int
		format  string
	)
	cmd := &cobra.Command{
		Use:   "status <file>",
		Short: "Classify a reading against the baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			r, index, err := pickReading(doc, reading)
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), format, service.BuildStatusReport(doc.Baseline, r, index))
		},
	}
	cmd.Flags().IntVar(&reading, "reading", -1, "reading index (default: last)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

// ============================================================
// schematic & sheet
// ============================================================

func newSchematicCmd() *cobra.Command {
	var (
		viewName string
		reading  int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "schematic <file>",
		Short: "Render the line schematic as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			var (
				data  models.ProcessData
				title string
			)
			switch deviation.Mode(viewName) {
			case deviation.ModeBaseline:
				data, title = doc.Baseline, "Baseline"
			case deviation.ModeCurrent:
				r, index, err := pickReading(doc, reading)
				if err != nil {
					return err
				}
				data, title = r, fmt.Sprintf("Reading %d", index+1)
			default:
				return fmt.Errorf("unknown view %q (baseline or current)", viewName)
			}
			svg, err := schematic.NewRenderer().Render(data, title)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, svg)
		},
	}
	cmd.Flags().StringVar(&viewName, "view", string(deviation.ModeCurrent), "baseline or current")
	cmd.Flags().IntVar(&reading, "reading", -1, "reading index for the current view (default: last)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newSheetCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sheet <file>",
		Short: "Render the HTML data collection sheet for the baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			page, err := schematic.CollectionSheet(doc.Baseline)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, page)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// ============================================================
// analyze
// ============================================================

func newAnalyzeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run a Gemini diagnostic analysis on a save file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level, _ := cmd.Flags().GetString("log-level")
			log := logger.New(level, "console")
			defer log.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LLMTimeout)
			defer cancel()

			diag, err := llm.Open(ctx, llm.Settings{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				Timeout: cfg.LLMTimeout,
			}, log)
			if err != nil {
				return err
			}
			analysis, err := diag.Analyze(ctx, llm.AnalysisRequest{
				Baseline:         doc.Baseline,
				Historical:       doc.Historical,
				ProblemStatement: doc.ProblemStatement,
			})
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			return writeFormatted(cmd.OutOrStdout(), format, analysis)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}
