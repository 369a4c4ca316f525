package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/keel/pkg/manifest"
)

var packVersion string

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack the dist directory into a deployment",
	Long: `Pack generates a manifest for the dist directory and writes the
deployment into the output directory: every asset under its
content-addressed name, plus manifest.yaml. It does not serve or
activate anything; use it to hand a deployment to other hosting.`,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVar(&packVersion, "version", "", "deployment version (overrides config)")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogging(cfg)

	version := cfg.Deploy.Version
	if packVersion != "" {
		version = packVersion
	}
	if v := manifest.NormalizeVersion(version); v != "" {
		version = v
	}

	m, err := manifest.Pack(cfg.Deploy.Dist, cfg.Deploy.Out, version)
	if err != nil {
		return err
	}
	m.BasePath = cfg.Server.BasePath
	if err := m.Write(cfg.Deploy.Out + "/manifest.yaml"); err != nil {
		return err
	}

	log.Info("packed deployment",
		"version", m.Version,
		"chunks", len(m.Chunks),
		"out", cfg.Deploy.Out,
	)
	return nil
}
