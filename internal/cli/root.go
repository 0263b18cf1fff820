// Package cli реализует planctl - консольный клиент хранилища планов.
package cli

import (
	"context"
	"fmt"

	"sasselerator/internal/app"
	"sasselerator/internal/config"
	"sasselerator/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Opener собирает зависимости для команды. withGenerator нужен только generate.
type Opener func(ctx context.Context, withGenerator bool) (*app.App, error)

type session struct {
	open Opener
	deps *app.App
}

func (s *session) get(ctx context.Context, withGenerator bool) (*app.App, error) {
	if s.deps != nil {
		return s.deps, nil
	}
	deps, err := s.open(ctx, withGenerator)
	if err != nil {
		return nil, err
	}
	s.deps = deps
	return deps, nil
}

func (s *session) close() {
	if s.deps != nil {
		s.deps.Close()
		s.deps = nil
	}
}

// NewRootCommand собирает planctl, который читает конфигурацию из окружения и .env.
func NewRootCommand() *cobra.Command {
	var envFile string
	opener := func(ctx context.Context, withGenerator bool) (*app.App, error) {
		cfg, err := config.LoadConfig(envFile)
		if err != nil {
			return nil, err
		}
		log, err := logger.New(logger.Config{Level: "warn", Encoding: "console", OutputPath: "stderr"})
		if err != nil {
			return nil, err
		}
		return app.Build(ctx, cfg, log, app.Options{WithoutGenerator: !withGenerator})
	}
	root := newRootCommand(opener)
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")
	return root
}

func newRootCommand(open Opener) *cobra.Command {
	s := &session{open: open}
	var noColor bool

	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Inspect and update Sasselerator plans",
		Long:          "planctl reads and updates saved SaaS plans in the same store the Sasselerator server uses.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		listCmd(s),
		showCmd(s),
		tasksCmd(s),
		doneCmd(s),
		exportCmd(s),
		generateCmd(s),
		deleteCmd(s),
	)
	// PersistentPostRun не вызывается после ошибки RunE, поэтому сессия закрывается здесь
	for _, sub := range root.Commands() {
		if sub.RunE == nil {
			continue
		}
		runE := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			defer s.close()
			return runE(cmd, args)
		}
	}
	return root
}

// callTool выполняет инструмент каталога и печатает его текст.
func callTool(cmd *cobra.Command, s *session, name string, args map[string]any) (string, error) {
	deps, err := s.get(cmd.Context(), false)
	if err != nil {
		return "", err
	}
	text, err := deps.Catalog.Call(cmd.Context(), name, args)
	if err != nil {
		deps.Logger.Debug("Tool call failed", zap.String("tool", name), zap.Error(err))
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}
