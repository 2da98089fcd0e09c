// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the survey API and the presentation files",
	Long: `Serve exposes survey attempts over HTTP. A client creates an attempt with
POST /api/attempts?survey=<id>, then drives it with next, back, choose and
responses calls. Timer gates and slide changes are pushed over the
/api/attempts/{id}/events websocket.

When --static is set, that directory is served at / as well.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := loader.NewSource(cfg.Source, logger)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(server.Deps{Config: cfg, Source: src, Store: st, Log: logger})
	logger.Info("serving surveys",
		zap.String("addr", cfg.Server.Addr),
		zap.Strings("surveys", cfg.Surveys.Allowed),
		zap.String("store", string(cfg.Store.Driver)))
	return srv.ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("static", "", "directory served at / (presentation layer and images)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.static_dir", serveCmd.Flags().Lookup("static"))

	rootCmd.AddCommand(serveCmd)
}
