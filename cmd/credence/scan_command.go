package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"credence/internal/detect"
	"credence/internal/history"
	"credence/internal/present"
	"credence/internal/services/c2pa"
	"credence/internal/services/trustmark"
	"credence/internal/trust"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool
	var plainFlag bool
	var skipHistory bool

	cmd := &cobra.Command{
		Use:   "scan <file-or-url>...",
		Short: "Scan media for embedded manifests and pixel watermarks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			reader := c2pa.NewCLI(
				c2pa.WithBinary(cfg.Reader.Binary),
				c2pa.WithTimeout(cfg.ReaderTimeout()),
				c2pa.WithMaxOutput(cfg.Reader.MaxOutputKiB<<10),
			)
			decoder := trustmark.NewCLI(
				trustmark.WithRuntime(cfg.Watermark.Runtime),
				trustmark.WithScript(cfg.Watermark.Script),
				trustmark.WithTimeout(cfg.WatermarkTimeout()),
				trustmark.WithMaxOutput(cfg.Watermark.MaxOutputKiB<<10),
			)
			loader := trust.NewLoader(cfg, reader, logger)

			opts := []detect.Option{
				detect.WithTrust(loader),
				detect.WithModelVariant(cfg.Watermark.ModelVariant),
				detect.WithLogger(logger),
				detect.WithDownloader(detect.NewDownloader(
					cfg.DownloadDir(), cfg.DownloadTimeout(), cfg.Download.MaxMiB)),
			}

			if cfg.History.Enabled && !skipHistory {
				store, err := history.Open(cmd.Context(), cfg)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				opts = append(opts, detect.WithRecorder(store))
			}

			detector := detect.New(reader, decoder, opts...)

			renderer := present.NewRenderer(cmd.OutOrStdout())
			if plainFlag {
				renderer.Plain()
			}
			for i, source := range args {
				detection, err := detector.Detect(cmd.Context(), source)
				if err != nil {
					return err
				}
				if jsonFlag {
					if err := writeJSON(cmd, detection); err != nil {
						return err
					}
					continue
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				renderer.Detection(detection)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the detection result as JSON")
	cmd.Flags().BoolVar(&plainFlag, "plain", false, "Disable color output")
	cmd.Flags().BoolVar(&skipHistory, "no-history", false, "Skip recording this scan in history")
	return cmd
}
