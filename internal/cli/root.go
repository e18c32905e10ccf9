// Package cli implements the mealplanner commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/meal-planner-agent/pkg/config"
	logx "github.com/tanpawarit/meal-planner-agent/pkg/logger"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type rootOptions struct {
	envFile string
	format  string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mealplanner",
		Short:         "Weekly meal planning with a chef and a critic model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				configx.SetEnvFile(opts.envFile)
			}
			switch opts.format {
			case formatText, formatJSON:
			default:
				return fmt.Errorf("unsupported --format %q", opts.format)
			}

			// The env file may carry LOG_* settings the autoload import missed.
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*logCfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env", "", "Path to a .env file (default: $"+configx.EnvFileVar+" or ./.env)")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text or json")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newPriceCmd(opts),
		newMemoryCmd(opts),
	)
	return cmd
}

func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
