// Package cli implements the pagefs command line tool.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/absfs/pagefs"
	"github.com/spf13/cobra"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	configPath string
	overrides  Config

	cfg    Config
	logger *slog.Logger
}

// NewRootCmd creates and returns the root cobra command for the pagefs CLI.
// It sets up all subcommands, command groups, and the shared flags.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pagefs",
		Short: "pagefs - buffered file access and PBKDF2 key derivation",
		Long: `pagefs reads and writes files through a buffered handle with a
write-back page for formatted writes and a read-ahead page for line reads.

Files live on a storage backend:
  - std:    the host filesystem
  - memory: an in-memory filesystem that lives for one invocation
  - bolt:   values of a bbolt database, one key per path

Settings come from a JSON-with-comments config file (` + ConfigFileName + ` in the
working directory, or --config) and can be overridden by flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a config file")
	pf.StringVar(&a.overrides.Backend, "backend", "", "Storage backend: std, memory or bolt")
	pf.StringVar(&a.overrides.BoltPath, "bolt-path", "", "Database file of the bolt backend")
	pf.IntVar(&a.overrides.PrintfPageSize, "printf-page", 0, "Write-back page size in bytes")
	pf.IntVar(&a.overrides.GetlinePageSize, "getline-page", 0, "Read-ahead page size in bytes")
	pf.StringVar(&a.overrides.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	groupFiles := "files"
	groupKeys := "keys"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFiles,
		Title: "File Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupKeys,
		Title: "Key Derivation",
	})

	for _, cmd := range []*cobra.Command{
		newCatCmd(a),
		newLinesCmd(a),
		newPrintfCmd(a),
		newTruncateCmd(a),
		newSizeCmd(a),
	} {
		cmd.GroupID = groupFiles
		rootCmd.AddCommand(cmd)
	}

	deriveCmd := newDeriveCmd()
	deriveCmd.GroupID = groupKeys
	rootCmd.AddCommand(deriveCmd)

	return rootCmd
}

// setup loads the config, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	cfg = mergeConfig(cfg, a.overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	level, _ := cfg.Level()

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded", "source", cfg.Source, "backend", cfg.Backend)
	return nil
}

// withFile opens path on the configured backend, runs fn and releases the
// file and the backend on every path.
func (a *app) withFile(path string, flag int, fn func(f *pagefs.File) error) (err error) {
	b, closeBackend, err := a.cfg.OpenBackend()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeBackend())
	}()

	f, err := pagefs.OpenWith(b, path, flag, 0644, a.cfg.Options(a.logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return fn(f)
}
