package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/spf13/cobra"

	"github.com/wolfman30/chatbot-decision-core/cmd/mainconfig"
	"github.com/wolfman30/chatbot-decision-core/internal/app/bootstrap"
	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/decision"
	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
	"github.com/wolfman30/chatbot-decision-core/internal/llm"
	"github.com/wolfman30/chatbot-decision-core/internal/profile"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

type rootOptions struct {
	profilePath  string
	triggersPath string
	logLevel     string
	useLLM       bool
}

// app is built once per invocation from the persistent flags.
type app struct {
	cfg       *appconfig.Config
	logger    *logging.Logger
	profile   *profile.Profile
	engine    *decision.Engine
	knowledge bootstrap.Knowledge
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "corectl",
		Short:         "Chatbot decision core tools",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.profilePath, "profile", "", "Configuration profile YAML (defaults to the built-in profile)")
	cmd.PersistentFlags().StringVar(&opts.triggersPath, "triggers", "", "Escalation trigger YAML (defaults to the built-in triggers)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	cmd.PersistentFlags().BoolVar(&opts.useLLM, "llm", false, "Use the configured LLM provider for categorization")

	cmd.AddCommand(
		newEvaluateCmd(a),
		newFallbackCmd(a),
		newAnalyzeCmd(a),
		newCategorizeCmd(a),
		newChunkCmd(a),
	)
	return cmd
}

func (a *app) setup(ctx context.Context, opts *rootOptions, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.cfg = appconfig.Load()
	if opts.profilePath == "" {
		opts.profilePath = a.cfg.ProfilePath
	}
	if opts.triggersPath == "" {
		opts.triggersPath = a.cfg.TriggersPath
	}
	a.logger = logging.NewWithWriter(opts.logLevel, logOut)

	p, err := profile.LoadFile(opts.profilePath)
	if err != nil {
		return err
	}
	a.profile = p

	var triggers []escalation.Trigger
	if opts.triggersPath != "" {
		f, err := os.Open(opts.triggersPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if triggers, err = escalation.LoadTriggers(f); err != nil {
			return err
		}
	}

	if a.engine, err = bootstrap.BuildEngine(p, triggers, bootstrap.Sessions{}, nil, a.logger); err != nil {
		return err
	}

	var client llm.Client
	if opts.useLLM {
		if client, err = a.llmClient(ctx); err != nil {
			return err
		}
	}
	a.knowledge = bootstrap.BuildKnowledge(a.cfg, p, client, nil, nil, a.logger)
	return nil
}

func (a *app) llmClient(ctx context.Context) (llm.Client, error) {
	var bedrockAPI llm.BedrockConverseAPI
	if a.cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		bedrockAPI = bedrockruntime.NewFromConfig(awsCfg)
	}
	return bootstrap.BuildLLMClient(ctx, a.cfg, bedrockAPI, a.logger)
}

// readInput reads a file argument, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func titleFromPath(path string) string {
	if path == "-" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
