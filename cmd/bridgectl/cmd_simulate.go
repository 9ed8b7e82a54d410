package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/greetings-dev/greetings-bridge/application/bridge"
	"github.com/greetings-dev/greetings-bridge/application/config"
	"github.com/greetings-dev/greetings-bridge/domain/entities"
	domainerrors "github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/infrastructure/hostsim"
	"github.com/greetings-dev/greetings-bridge/infrastructure/parser"
	"github.com/greetings-dev/greetings-bridge/internal/mutf8"
)

// hexPrefix marks an input given as raw modified UTF-8 bytes.
const hexPrefix = "hex:"

var (
	simConfigPath    string
	simParallel      int
	simMissingSymbol bool
	simVMCount       int
	simStatus        int32
	simAttachStatus  int32
	simLogcat        bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [inputs...]",
	Short: "Run greeting calls against a simulated host",
	Long: `Runs one greeting call per input on a simulated host VM and prints each
result. Inputs prefixed with "hex:" are passed as raw bytes, which makes it
possible to exercise invalid text, e.g. hex:eda0bd for an unpaired surrogate.

The failure flags reproduce the ways locating the host VM can fail.`,
	Example: `  bridgectl simulate world "" hex:c080
  bridgectl simulate --missing-symbol world
  bridgectl simulate --parallel 8 a b c d e f g h`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simConfigPath, "config", "c", "", "Bridge configuration file")
	f.IntVarP(&simParallel, "parallel", "p", 1, "Number of concurrent calls")
	f.BoolVar(&simMissingSymbol, "missing-symbol", false, "Remove the created-VMs entry point")
	f.IntVar(&simVMCount, "vm-count", 1, "Number of VMs in the simulated process")
	f.Int32Var(&simStatus, "status", entities.StatusOK, "Status returned by the created-VMs entry point")
	f.Int32Var(&simAttachStatus, "attach-status", entities.StatusOK, "Status returned by thread attach")
	f.BoolVar(&simLogcat, "logcat", false, "Print the host log after the calls")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if simConfigPath != "" {
		var err error
		if cfg, err = config.LoadFile(parser.NewYamlConfigParser(), simConfigPath); err != nil {
			return err
		}
	}

	inputs, err := decodeInputs(args)
	if err != nil {
		return err
	}

	host := hostsim.New(simulateOptions()...)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	native := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	h := bridge.NewHandler(host, bridge.WithConfig(cfg), bridge.WithLogger(native))

	results := make([]string, len(inputs))
	var g errgroup.Group
	g.SetLimit(max(simParallel, 1))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			ref := host.NewRawString(in)
			defer host.DeleteString(ref)

			out, err := h.HandleCall(host.Env(), ref)
			if err != nil {
				return fmt.Errorf("call %d: %w", i, err)
			}
			defer host.DeleteString(out)

			text, err := host.Text(out)
			if err != nil {
				return fmt.Errorf("call %d: %w", i, err)
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		detail := domainerrors.ToErrorDetail(err)
		logger.Error("simulation failed",
			zap.String("type", detail.Type),
			zap.String("code", detail.Code),
			zap.Error(err),
		)
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range results {
		fmt.Fprintf(out, "%s => %s\n", args[i], r)
	}

	if simLogcat {
		for _, e := range host.Logcat() {
			fmt.Fprintln(out, e.String())
		}
	}

	count, total := host.Ledger().Stats()
	logger.Debug("simulation complete",
		zap.Int("calls", len(inputs)),
		zap.Int("outstanding_views", count),
		zap.Int("outstanding_bytes", total),
		zap.Object("stats", hostStats(host.Stats())),
	)
	return nil
}

func simulateOptions() []hostsim.Option {
	opts := []hostsim.Option{
		hostsim.WithLogSink(logger.Named("logcat")),
		hostsim.WithVMCount(simVMCount),
		hostsim.WithEnumerateStatus(simStatus),
		hostsim.WithAttachFailure(simAttachStatus),
	}
	if simMissingSymbol {
		opts = append(opts, hostsim.WithoutSymbol())
	}
	return opts
}

// decodeInputs converts arguments to modified UTF-8 bytes.
func decodeInputs(args []string) ([][]byte, error) {
	inputs := make([][]byte, 0, len(args))
	for _, arg := range args {
		if raw, ok := strings.CutPrefix(arg, hexPrefix); ok {
			b, err := hex.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid hex input %q: %w", arg, err)
			}
			inputs = append(inputs, b)
			continue
		}
		inputs = append(inputs, mutf8.Encode(arg))
	}
	return inputs, nil
}

type hostStats hostsim.Stats

func (s hostStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("enumerations", s.Enumerations)
	enc.AddInt("attaches", s.Attaches)
	enc.AddInt("detaches", s.Detaches)
	enc.AddInt("live_strings", s.LiveStrings)
	return nil
}
