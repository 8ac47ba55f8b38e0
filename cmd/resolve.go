package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/report"
)

var (
	resolveProduct  string
	resolveReporter string
	resolvePartner  string
	resolveYear     int
	resolveFormat   string
	resolveXLSX     string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a product and country pair to a tariff rate",
	Example: `  tariff-cli resolve --product "wireless earbuds" --reporter Brazil --partner Iraq --year 2021
  tariff-cli resolve --product coffee --reporter USA --partner World --year 2024 --format yaml --xlsx out.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.ResolveRequest{
			Product:    resolveProduct,
			Reporter:   resolveReporter,
			Partner:    resolvePartner,
			TargetYear: resolveYear,
		}
		res, err := env.Orchestrator.Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}

		if resolveXLSX != "" {
			if err := report.WriteXLSX(resolveXLSX, req, res); err != nil {
				return err
			}
			zap.S().Infow("report written", "path", resolveXLSX)
		}

		switch resolveFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(res)
		default:
			return eris.Errorf("unknown format %q (valid: json, yaml)", resolveFormat)
		}
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveProduct, "product", "", "product description (required)")
	resolveCmd.Flags().StringVar(&resolveReporter, "reporter", "", "reporting country name (required)")
	resolveCmd.Flags().StringVar(&resolvePartner, "partner", "", "partner country name (required)")
	resolveCmd.Flags().IntVar(&resolveYear, "year", 0, "target year (required)")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "json", "output format: json or yaml")
	resolveCmd.Flags().StringVar(&resolveXLSX, "xlsx", "", "also write an .xlsx report to this path")
	_ = resolveCmd.MarkFlagRequired("product")
	_ = resolveCmd.MarkFlagRequired("reporter")
	_ = resolveCmd.MarkFlagRequired("partner")
	_ = resolveCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(resolveCmd)
}
