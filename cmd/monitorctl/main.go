// Command monitorctl работает с файлами сохранения линии без сервера:
// проверка, отчёт о состоянии, схема, лист сбора и анализ моделью.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ============================================================
// Root command
// ============================================================

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "monitorctl",
		Short:         "Inspect process line save files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level for model calls (debug, info, warn, error)")

	root.AddCommand(
		newValidateCmd(),
		newStatusCmd(),
		newSchematicCmd(),
		newSheetCmd(),
		newAnalyzeCmd(),
	)
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
