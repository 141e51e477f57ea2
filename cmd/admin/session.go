package main

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/sdk"
)

type (
	servicesOutput struct {
		Region    string   `yaml:"region"`
		Profile   string   `yaml:"profile"`
		Clients   []string `yaml:"clients"`
		Resources []string `yaml:"resources"`
	}

	whoamiOutput struct {
		Account string `yaml:"account"`
		ARN     string `yaml:"arn"`
		UserID  string `yaml:"user_id"`
	}
)

var (
	servicesCmd = &cobra.Command{
		Use:   "services",
		Short: "List the services available as clients and resources.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			session := app.Session()
			return printYAML(&servicesOutput{
				Region:    session.RegionName(),
				Profile:   session.ProfileName(),
				Clients:   session.AvailableServices(),
				Resources: session.AvailableResources(),
			})
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity behind the resolved credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			client, err := sdk.ClientAs[stsiface.STSAPI]("sts")
			if err != nil {
				return xerrors.Errorf("failed to create sts client: %w", err)
			}

			identity, err := client.GetCallerIdentityWithContext(app.Context(), &sts.GetCallerIdentityInput{})
			if err != nil {
				return xerrors.Errorf("failed to get caller identity: %w", err)
			}

			return printYAML(&whoamiOutput{
				Account: aws.StringValue(identity.Account),
				ARN:     aws.StringValue(identity.Arn),
				UserID:  aws.StringValue(identity.UserId),
			})
		},
	}
)

func init() {
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(whoamiCmd)
}
