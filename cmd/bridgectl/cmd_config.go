package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greetings-dev/greetings-bridge/application/config"
	"github.com/greetings-dev/greetings-bridge/application/schema"
	"github.com/greetings-dev/greetings-bridge/infrastructure/parser"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the bridge configuration",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a bridge configuration file",
	Long: `Parses a YAML or JSON configuration file, overlays it on the defaults and
validates the result. The effective configuration is printed on success.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runSchema(cmd *cobra.Command, _ []string) error {
	data, err := schema.BridgeConfigSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(parser.NewYamlConfigParser(), args[0])
	if err != nil {
		logger.Error("config rejected", zap.String("path", args[0]), zap.Error(err))
		return err
	}
	logger.Debug("config accepted", zap.String("path", args[0]))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok\n", args[0])
	fmt.Fprintf(out, "  symbol:              %s\n", cfg.Symbol)
	fmt.Fprintf(out, "  tag:                 %s\n", cfg.Tag)
	fmt.Fprintf(out, "  prefix:              %q\n", cfg.Prefix)
	fmt.Fprintf(out, "  fallback_target:     %q\n", cfg.FallbackTarget)
	fmt.Fprintf(out, "  failure_placeholder: %q\n", cfg.FailurePlaceholder)
	fmt.Fprintf(out, "  detach:              %s\n", cfg.Detach)
	fmt.Fprintf(out, "  log_sink:            %s.%s\n", cfg.LogClass, cfg.LogMethod)
	return nil
}
