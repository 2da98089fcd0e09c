// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/console"
	"github.com/pdiddy/iqa-survey/internal/deck"
	"github.com/pdiddy/iqa-survey/internal/flow"
	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/survey"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a survey in the terminal",
	Long: `Run loads a survey and walks it on stdin/stdout. Form fields are asked one
per line, comparisons are answered with 1 or 2, and the result is recorded in
the configured store exactly as the HTTP API would. Type q to quit.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}
	surveyFlag, _ := cmd.Flags().GetString("survey")
	skipCompare, _ := cmd.Flags().GetBool("skip-compare")
	seed, _ := cmd.Flags().GetUint64("seed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	surveyID := loader.ResolveSurveyID(surveyFlag, cfg.Surveys.Allowed, cfg.Surveys.Default)
	src, err := loader.NewSource(cfg.Source, logger)
	if err != nil {
		return err
	}
	bundle, err := loader.Load(ctx, src, surveyID)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	rng := newRand(seed)
	slides := deck.Assemble(bundle.Config, bundle.Manifest, deck.Options{
		ImageBase:   cfg.Source.ImageBase,
		SkipCompare: skipCompare,
		Rand:        rng,
	})

	rec := survey.NewRecorder(st, surveyID, nil, logger)
	defer func() {
		rec.Close()
		<-rec.Done()
	}()
	ctrl := flow.New(slides, flow.WithHooks(rec), flow.WithRand(rng), flow.WithLogger(logger))
	defer ctrl.Close()
	ctrl.Start(ctx)

	descriptions := loader.NewDescriptions(src, time.Hour, logger)
	runner := console.New(ctrl, os.Stdin, os.Stdout, console.Options{
		Describe: descriptions.Get,
		Footer:   bundle.Config.Footer,
	})
	if err := runner.Run(ctx); err != nil {
		return err
	}

	rec.Close()
	<-rec.Done()
	id, saveErr := rec.FinalID()
	if saveErr != nil {
		logger.Warn("result not stored", zap.Error(saveErr))
		return nil
	}
	fmt.Printf("Result stored as %s\n", id)
	return nil
}

// newRand returns a seeded source, or a random one for seed 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

func init() {
	runCmd.Flags().String("survey", "", "survey id (default: surveys.default)")
	runCmd.Flags().Bool("skip-compare", false, "drop comparison slides")
	runCmd.Flags().Uint64("seed", 0, "seed for scene order and pair display (0 = random)")

	rootCmd.AddCommand(runCmd)
}
