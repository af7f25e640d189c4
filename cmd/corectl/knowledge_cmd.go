package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/chatbot-decision-core/internal/knowledge"
)

func newCategorizeCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "categorize FILE",
		Short: "Categorize a knowledge document (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = titleFromPath(args[0])
			}
			result, err := a.knowledge.Classifier.Classify(cmd.Context(), string(raw), title)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	return cmd
}

func newChunkCmd(a *app) *cobra.Command {
	var (
		title    string
		category string
		tags     []string
	)
	cmd := &cobra.Command{
		Use:   "chunk FILE",
		Short: "Categorize and chunk a knowledge document (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc := knowledge.Document{
				Title:   title,
				Source:  args[0],
				Tags:    tags,
				Content: string(raw),
			}
			if doc.Title == "" {
				doc.Title = titleFromPath(args[0])
			}
			if category != "" {
				c, ok := knowledge.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				doc.Category = c
			}
			result, err := a.knowledge.Ingestor.Ingest(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVar(&category, "category", "", "Preset category; skips classification")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Document tags")
	return cmd
}
