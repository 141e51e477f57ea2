package main

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/sdk"
)

var (
	s3Flags struct {
		prefix string
		out    string
	}

	s3Cmd = &cobra.Command{
		Use:   "s3",
		Short: "Work with S3 buckets and objects.",
	}

	s3ListCmd = &cobra.Command{
		Use:   "ls [bucket]",
		Short: "List the buckets, or the objects of a bucket.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			resource, err := sdk.ResourceAs[*sdk.S3Resource]("s3")
			if err != nil {
				return xerrors.Errorf("failed to create s3 resource: %w", err)
			}

			if len(args) == 0 {
				buckets, err := resource.Buckets(app.Context())
				if err != nil {
					return xerrors.Errorf("failed to list buckets: %w", err)
				}

				names := make([]string, len(buckets))
				for i, bucket := range buckets {
					names[i] = bucket.Name()
				}
				return printYAML(names)
			}

			objects, err := resource.Bucket(args[0]).Objects(app.Context(), s3Flags.prefix)
			if err != nil {
				return xerrors.Errorf("failed to list objects of %v: %w", args[0], err)
			}

			keys := make([]string, len(objects))
			for i, object := range objects {
				keys[i] = object.Key()
			}
			return printYAML(keys)
		},
	}

	s3GetCmd = &cobra.Command{
		Use:   "get bucket key",
		Short: "Download an object.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			resource, err := sdk.ResourceAs[*sdk.S3Resource]("s3")
			if err != nil {
				return xerrors.Errorf("failed to create s3 resource: %w", err)
			}

			data, err := resource.Bucket(args[0]).Object(args[1]).Get(app.Context())
			if err != nil {
				return xerrors.Errorf("failed to get object s3://%v/%v: %w", args[0], args[1], err)
			}

			if s3Flags.out == "" {
				_, err = output.Write(data)
				return err
			}

			if err := os.WriteFile(s3Flags.out, data, 0644); /* #nosec G306 */ err != nil {
				return xerrors.Errorf("failed to write output file: %w", err)
			}

			logger.Info("downloaded object", zap.String("bucket", args[0]), zap.String("key", args[1]), zap.String("out", s3Flags.out))
			return nil
		},
	}

	s3PutCmd = &cobra.Command{
		Use:   "put bucket key file",
		Short: "Upload a file as an object.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			resource, err := sdk.ResourceAs[*sdk.S3Resource]("s3")
			if err != nil {
				return xerrors.Errorf("failed to create s3 resource: %w", err)
			}

			data, err := os.ReadFile(args[2])
			if err != nil {
				return xerrors.Errorf("failed to read %v: %w", args[2], err)
			}

			contentType := mime.TypeByExtension(filepath.Ext(args[2]))
			if err := resource.Bucket(args[0]).Object(args[1]).Put(app.Context(), data, contentType); err != nil {
				return xerrors.Errorf("failed to put object s3://%v/%v: %w", args[0], args[1], err)
			}

			logger.Info("uploaded object", zap.String("bucket", args[0]), zap.String("key", args[1]), zap.Int("size", len(data)))
			return nil
		},
	}
)

func init() {
	s3ListCmd.Flags().StringVar(&s3Flags.prefix, "prefix", "", "key prefix")
	s3GetCmd.Flags().StringVar(&s3Flags.out, "out", "", "output filepath; defaults to stdout")

	s3Cmd.AddCommand(s3ListCmd)
	s3Cmd.AddCommand(s3GetCmd)
	s3Cmd.AddCommand(s3PutCmd)
	rootCmd.AddCommand(s3Cmd)
}
