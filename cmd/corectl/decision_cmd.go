package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/chatbot-decision-core/internal/decision"
	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
	"github.com/wolfman30/chatbot-decision-core/internal/fallback"
	"github.com/wolfman30/chatbot-decision-core/internal/tokenbudget"
)

type signalFlags struct {
	sentiment   float64
	complexity  float64
	frustration float64
}

func (s *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&s.sentiment, "sentiment-score", 0, "Sentiment score (0-100)")
	cmd.Flags().Float64Var(&s.complexity, "complexity", 0, "Complexity score (0-100)")
	cmd.Flags().Float64Var(&s.frustration, "frustration", 0, "Frustration score (0-100)")
}

// signals returns only the scores that were set on the command line.
func (s *signalFlags) signals(cmd *cobra.Command) *escalation.Signals {
	out := &escalation.Signals{}
	set := false
	if cmd.Flags().Changed("sentiment-score") {
		out.SentimentScore, set = escalation.Float(s.sentiment), true
	}
	if cmd.Flags().Changed("complexity") {
		out.ComplexityScore, set = escalation.Float(s.complexity), true
	}
	if cmd.Flags().Changed("frustration") {
		out.FrustrationScore, set = escalation.Float(s.frustration), true
	}
	if !set {
		return nil
	}
	return out
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		leadScore float64
		signals   signalFlags
	)
	cmd := &cobra.Command{
		Use:   "evaluate MESSAGE...",
		Short: "Detect intent, escalation and journey stage for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := decision.MessageInput{
				Message: strings.Join(args, " "),
				Signals: signals.signals(cmd),
			}
			if cmd.Flags().Changed("lead-score") {
				in.LeadScore = escalation.Float(leadScore)
			}
			out, err := a.engine.Evaluate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Float64Var(&leadScore, "lead-score", 0, "Lead score (0-100)")
	signals.register(cmd)
	return cmd
}

func newFallbackCmd(a *app) *cobra.Command {
	var (
		message   string
		sentiment string
		botName   string
		cause     string
		failures  int
		signals   signalFlags
	)
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Produce the fallback response for a provider failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			failureCount := failures
			out := a.engine.Fallback(cmd.Context(), decision.FailureInput{
				LastMessage:  message,
				Sentiment:    sentiment,
				BotName:      botName,
				FailureCount: &failureCount,
				Cause:        fallback.FailureCause(cause),
				Signals:      signals.signals(cmd),
			})
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Last visitor message")
	cmd.Flags().StringVar(&sentiment, "sentiment", "", "Sentiment label (positive, neutral, negative)")
	cmd.Flags().StringVar(&botName, "bot-name", "", "Assistant name used in the response")
	cmd.Flags().StringVar(&cause, "cause", "", "Failure cause (timeout, api_error, context_overflow)")
	cmd.Flags().IntVar(&failures, "failures", 0, "Prior failures in this session")
	signals.register(cmd)
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze prompt token usage from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var usage tokenbudget.Usage
			if err := json.Unmarshal(raw, &usage); err != nil {
				return fmt.Errorf("invalid usage json: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), a.engine.AnalyzePrompt(cmd.Context(), usage))
		},
	}
}
