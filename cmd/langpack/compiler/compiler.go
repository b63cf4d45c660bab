// Package compiler is the command line of the langpack localization compiler.
package compiler

import (
	"context"
	"fmt"
	"sync"

	"github.com/langpack/langpack/internal/i18n"
	"github.com/langpack/langpack/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cmdName is the binary name of the compiler.
const cmdName = "langpack"

// App encapsulates the commands and options of the compiler, which can be controlled by env
// variables and config files.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  appConfig

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

type appConfig struct {
	Verbosity int

	Project string
	Output  string

	KeepFuzzy         bool   `mapstructure:"keep-fuzzy"`
	OrphanPolicy      string `mapstructure:"orphan-policy"`
	BaseLocale        string `mapstructure:"base-locale"`
	StrictAcquisition bool   `mapstructure:"strict-acquisition"`
	Year              int
	EmitMO            bool `mapstructure:"emit-mo"`
	Jobs              int
}

// New registers commands and returns a new App.
func New() *App {
	a := App{}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND", cmdName),
		Short: i18n.G("Localization compiler"),
		Long: i18n.G(`Localization compiler turning translatable strings of source code into compact binary catalogs.

It extracts a template from the sources of each source set of the project, validates and normalizes
the catalogs of every locale, and compiles them into one binary catalog per locale and one pack per source set.`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Force a visit of the local flags so persistent flags for all parents are merged.
			cmd.LocalFlags()

			// command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			if err := initViperConfig(cmdName, &a.rootCmd, a.viper); err != nil {
				return err
			}

			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			setVerboseMode(a.config.Verbosity)
			log.Debug(context.Background(), "Debug mode is enabled")

			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)
	a.installProjectFlags()

	// subcommands
	a.installExtract()
	a.installValidate()
	a.installShorten()
	a.installCompile()
	a.installStats()
	a.installInspect()
	a.installWatch()
	a.installVersion()
	a.installDocs()

	return &a
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
func (a *App) Run() error {
	return a.rootCmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// Quit cancels any running command. It can be called more than once.
func (a *App) Quit() {
	a.once.Do(a.cancel)
}

// RootCmd returns a copy of the root command for the app. Shouldn't be in general necessary apart when running generators.
func (a *App) RootCmd() cobra.Command {
	return a.rootCmd
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args ...string) {
	a.rootCmd.SetArgs(args)
}

// Config returns the appConfig for test purposes.
//
//nolint:revive
func (a *App) Config() appConfig {
	return a.config
}
