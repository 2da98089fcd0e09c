// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Generate image-manifest.json from the images directory",
	Long: `Manifest scans <source-dir>/images: every subdirectory is a scene and its
image files (png, jpg, jpeg, gif, webp) are the scene's conditions. The result
is written to <source-dir>/image-manifest.json unless --out is given.`,
	RunE: runManifest,
}

func runManifest(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("source.dir")
	images, _ := cmd.Flags().GetString("images")
	out, _ := cmd.Flags().GetString("out")
	if images == "" {
		images = filepath.Join(dir, "images")
	}
	if out == "" {
		out = filepath.Join(dir, loader.ManifestPath)
	}

	m, err := manifest.Generate(images)
	if err != nil {
		return err
	}
	if err := manifest.Write(out, m); err != nil {
		return err
	}
	scenes, files := manifest.Count(m)
	fmt.Printf("Wrote %s: %d scenes, %d images\n", out, scenes, files)
	return nil
}

func init() {
	manifestCmd.Flags().String("images", "", "images directory (default: <source-dir>/images)")
	manifestCmd.Flags().String("out", "", "output path (default: <source-dir>/image-manifest.json)")

	rootCmd.AddCommand(manifestCmd)
}
