package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yoskmr/cwtail/internal/client"
	"github.com/yoskmr/cwtail/internal/macro"
)

// app carries the flags and collaborators shared by all subcommands.
type app struct {
	profile  string
	s3Bucket string
	s3Key    string
	logger   *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	root := &cobra.Command{
		Use:   "cwtail",
		Short: "Tail a CloudWatch Logs group and manage saved tail macros",
		Long: `cwtail polls a CloudWatch Logs group, printing new events as they arrive.
Invocation parameters can be saved as named macros, persisted to
~/.cwtail/macros.toml and optionally mirrored to an S3 object.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.profile, "profile", "",
		"AWS shared config profile (or set AWS_PROFILE)")
	root.PersistentFlags().StringVar(&a.s3Bucket, "s3-bucket", os.Getenv("CWTAIL_S3_BUCKET"),
		"S3 bucket mirroring the macro file (or set CWTAIL_S3_BUCKET)")
	root.PersistentFlags().StringVar(&a.s3Key, "s3-key", envOr("CWTAIL_S3_KEY", "macros.toml"),
		"S3 object key of the macro mirror (or set CWTAIL_S3_KEY)")

	root.AddCommand(
		newTailCommand(a),
		newRunCommand(a),
		newAddCommand(a),
		newListCommand(a),
		newRemoveCommand(a),
	)
	return root
}

// openStore builds the macro store, attaching the S3 mirror when a
// bucket is configured. region may be empty; the SDK default chain then
// decides.
func (a *app) openStore(ctx context.Context, region string) (*macro.Store, error) {
	path, err := macro.DefaultPath()
	if err != nil {
		return nil, err
	}
	opts := []macro.Option{macro.WithLogger(a.logger)}
	if a.s3Bucket != "" {
		cfg, err := client.Load(ctx, client.AuthOptions{Region: region, Profile: a.profile})
		if err != nil {
			return nil, fmt.Errorf("load AWS configuration for macro mirror: %w", err)
		}
		opts = append(opts, macro.WithMirror(macro.NewS3Mirror(client.NewS3(cfg), a.s3Bucket, a.s3Key)))
	}
	return macro.NewStore(path, opts...), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
