// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iqa-survey/internal/deck"
	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Print the slide deck a survey assembles to",
	Long: `Deck loads a survey configuration and the image manifest and prints the
assembled slide sequence: pre-slides, practice, shuffled comparison scenes and
post-slides. Use --seed for a reproducible scene order and --format to dump
the full deck as YAML or JSON.`,
	RunE: runDeck,
}

func runDeck(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}
	surveyFlag, _ := cmd.Flags().GetString("survey")
	skipCompare, _ := cmd.Flags().GetBool("skip-compare")
	seed, _ := cmd.Flags().GetUint64("seed")
	format, _ := cmd.Flags().GetString("format")

	surveyID := loader.ResolveSurveyID(surveyFlag, cfg.Surveys.Allowed, cfg.Surveys.Default)
	src, err := loader.NewSource(cfg.Source, logger)
	if err != nil {
		return err
	}
	bundle, err := loader.Load(context.Background(), src, surveyID)
	if err != nil {
		return err
	}

	slides := deck.Assemble(bundle.Config, bundle.Manifest, deck.Options{
		ImageBase:   cfg.Source.ImageBase,
		SkipCompare: skipCompare,
		Rand:        newRand(seed),
	})

	if format != "" && format != "table" {
		return writeFormatted(os.Stdout, format, slides)
	}
	fmt.Println(renderTable(
		[]string{"#", "Type", "Title", "Scene", "Items", "Timer"},
		deckRows(slides),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Printf("\n%s: %d slides\n", surveyID, len(slides))
	return nil
}

func deckRows(slides []types.Slide) [][]string {
	rows := make([][]string, 0, len(slides))
	for i, s := range slides {
		kind := string(s.Type)
		if kind == "" {
			kind = string(types.SlideInfo)
		}
		if s.Practice {
			kind += " (practice)"
		}
		items, timer := "", ""
		if s.IsCompare() {
			items = strconv.Itoa(len(s.Conditions))
		}
		if s.Timer > 0 {
			timer = strconv.FormatFloat(s.Timer, 'f', -1, 64) + "s"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), kind, s.Title, s.SceneID, items, timer})
	}
	return rows
}

func init() {
	deckCmd.Flags().String("survey", "", "survey id (default: surveys.default)")
	deckCmd.Flags().Bool("skip-compare", false, "drop comparison slides")
	deckCmd.Flags().Uint64("seed", 0, "seed for scene order (0 = random)")
	deckCmd.Flags().String("format", "table", "output format: table, yaml or json")

	rootCmd.AddCommand(deckCmd)
}
