package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"credence/internal/services/c2pa"
	"credence/internal/trust"
)

func newTrustCommand(ctx *commandContext) *cobra.Command {
	trustCmd := &cobra.Command{
		Use:   "trust",
		Short: "Trust bootstrap utilities",
	}

	trustCmd.AddCommand(newTrustRefreshCommand(ctx))
	trustCmd.AddCommand(newTrustStatusCommand(ctx))

	return trustCmd
}

func newTrustRefreshCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the trust anchors, allowed list, and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			// A fresh loader forces a full fetch: the memo belongs to the
			// loader instance, not the cache directory.
			engine := c2pa.NewCLI(c2pa.WithBinary(cfg.Reader.Binary))
			loader := trust.NewLoader(cfg, engine, logger)
			if err := loader.Ensure(cmd.Context()); err != nil {
				return err
			}

			documents := loader.Documents()
			if jsonFlag {
				return writeJSON(cmd, documents)
			}

			out := cmd.OutOrStdout()
			for _, doc := range documents {
				if doc.Fetched {
					fmt.Fprintf(out, "%s: fetched to %s\n", doc.Name, doc.Path)
					continue
				}
				detail := doc.Detail
				if detail == "" {
					detail = "not fetched"
				}
				fmt.Fprintf(out, "%s: %s\n", doc.Name, detail)
			}
			if warning := loader.Warning(); warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the bootstrap outcome as JSON")
	return cmd
}

func newTrustStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached trust artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cacheDir := cfg.TrustCacheDir()
			fmt.Fprintf(out, "Cache directory: %s\n", cacheDir)
			fmt.Fprintf(out, "Verify on read:  %s\n", yesNo(cfg.Trust.VerifyOnRead))

			for _, name := range []string{"anchors.pem", "allowed.txt", "policy.cfg"} {
				path := filepath.Join(cacheDir, name)
				info, err := os.Stat(path)
				if err != nil {
					fmt.Fprintf(out, "%-12s absent\n", name+":")
					continue
				}
				fmt.Fprintf(out, "%-12s %d bytes, fetched %s\n",
					name+":", info.Size(), info.ModTime().Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
