package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/services"
	"github.com/coinbase/cloudsession/internal/utils/log"
	"github.com/coinbase/cloudsession/sdk"
)

const (
	envFlagName = "env"
)

type (
	// CmdApp holds what a single command invocation needs.
	CmdApp interface {
		Context() context.Context
		Session() sdk.Session
		Close()
	}

	cmdAppImpl struct {
		manager services.SystemManager
		session sdk.Session
	}
)

var (
	commonFlags struct {
		env        string
		region     string
		profile    string
		endpoint   string
		localStack bool
		verbose    bool
	}

	logger *zap.Logger
	output io.Writer = os.Stdout
)

func init() {
	logger = log.NewDevelopment()
	rootCmd.PersistentFlags().StringVar(&commonFlags.env, envFlagName, "", "one of [local, development, production]")
	rootCmd.PersistentFlags().StringVar(&commonFlags.region, "region", "", "AWS region, e.g. us-west-2")
	rootCmd.PersistentFlags().StringVar(&commonFlags.profile, "profile", "", "profile from the AWS shared config files")
	rootCmd.PersistentFlags().StringVar(&commonFlags.endpoint, "endpoint", "", "endpoint override for every service")
	rootCmd.PersistentFlags().BoolVar(&commonFlags.localStack, "local-stack", false, "target LocalStack at http://localhost:4566")
	rootCmd.PersistentFlags().BoolVar(&commonFlags.verbose, "verbose", false, "print the library log entries")
}

func sessionConfigFromFlags() *sdk.Config {
	return &sdk.Config{
		Env:        config.Env(commonFlags.env),
		Region:     commonFlags.region,
		Profile:    commonFlags.profile,
		Endpoint:   commonFlags.endpoint,
		LocalStack: commonFlags.localStack,
	}
}

// startApp configures the default session from the flags.
// The service context is canceled on SIGINT, which cancels the in-flight AWS requests.
func startApp() (CmdApp, error) {
	manager := services.NewManager(services.WithLogger(logger))

	if commonFlags.verbose {
		sdk.SetLogger(logger)
	}

	if err := sdk.SetupDefaultSession(sessionConfigFromFlags()); err != nil {
		manager.Shutdown()
		return nil, xerrors.Errorf("failed to set up default session: %w", err)
	}

	session, err := sdk.DefaultSession()
	if err != nil {
		manager.Shutdown()
		return nil, xerrors.Errorf("failed to get default session: %w", err)
	}

	manager.AddShutdownHook(func() {
		if err := session.Close(); err != nil {
			logger.Error("failed to close session", zap.Error(err))
		}
	})

	return &cmdAppImpl{
		manager: manager,
		session: session,
	}, nil
}

func (a *cmdAppImpl) Context() context.Context {
	return a.manager.ServiceContext()
}

func (a *cmdAppImpl) Session() sdk.Session {
	return a.session
}

func (a *cmdAppImpl) Close() {
	a.manager.Shutdown()
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return xerrors.Errorf("failed to marshal output: %w", err)
	}

	if _, err := output.Write(data); err != nil {
		return xerrors.Errorf("failed to write output: %w", err)
	}

	return nil
}

// confirm asks for a y/N answer on stdin. Commands against LocalStack or the local env never ask.
func confirm(prompt string) bool {
	env := config.Env(commonFlags.env)
	if env == "" {
		env = config.GetEnv()
	}

	if commonFlags.localStack || env == config.EnvLocal {
		return true
	}

	fmt.Print(prompt)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logger.Error("failed to read from console", zap.Error(err))
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "y"
}
