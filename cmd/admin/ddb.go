package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/sdk"
)

var (
	ddbFlags struct {
		key  string
		item string
	}

	ddbCmd = &cobra.Command{
		Use:   "ddb",
		Short: "Work with DynamoDB tables.",
	}

	ddbGetCmd = &cobra.Command{
		Use:   "get table",
		Short: "Get an item by its primary key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			key, err := parseAttributes(ddbFlags.key)
			if err != nil {
				return xerrors.Errorf("failed to parse key: %w", err)
			}

			table, err := getTable(args[0])
			if err != nil {
				return err
			}

			var item map[string]any
			if err := table.GetItem(app.Context(), key, &item); err != nil {
				return xerrors.Errorf("failed to get item from %v: %w", args[0], err)
			}

			return printYAML(item)
		},
	}

	ddbPutCmd = &cobra.Command{
		Use:   "put table",
		Short: "Put an item.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			item, err := parseAttributes(ddbFlags.item)
			if err != nil {
				return xerrors.Errorf("failed to parse item: %w", err)
			}

			table, err := getTable(args[0])
			if err != nil {
				return err
			}

			if err := table.PutItem(app.Context(), item); err != nil {
				return xerrors.Errorf("failed to put item into %v: %w", args[0], err)
			}

			logger.Info("put item", zap.String("table", table.Name()))
			return nil
		},
	}
)

func init() {
	ddbGetCmd.Flags().StringVar(&ddbFlags.key, "key", "", `primary key as JSON, e.g. {"id": "foo"}`)
	ddbPutCmd.Flags().StringVar(&ddbFlags.item, "item", "", `item as JSON, e.g. {"id": "foo", "count": 1}`)
	_ = ddbGetCmd.MarkFlagRequired("key")
	_ = ddbPutCmd.MarkFlagRequired("item")

	ddbCmd.AddCommand(ddbGetCmd)
	ddbCmd.AddCommand(ddbPutCmd)
	rootCmd.AddCommand(ddbCmd)
}

func parseAttributes(data string) (map[string]any, error) {
	var attributes map[string]any
	if err := json.Unmarshal([]byte(data), &attributes); err != nil {
		return nil, xerrors.Errorf("invalid json %q: %w", data, err)
	}

	if len(attributes) == 0 {
		return nil, xerrors.Errorf("no attributes in %q", data)
	}

	return attributes, nil
}

func getTable(name string) (*sdk.DynamoDBTable, error) {
	resource, err := sdk.ResourceAs[*sdk.DynamoDBResource]("dynamodb")
	if err != nil {
		return nil, xerrors.Errorf("failed to create dynamodb resource: %w", err)
	}

	return resource.Table(name), nil
}
