package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/i18n"
	"github.com/langpack/langpack/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
)

// defaultOutput is where artifacts are written, relative to the project root.
const defaultOutput = "build/i18n"

func initViperConfig(name string, cmd *cobra.Command, vip *viper.Viper) (err error) {
	defer decorate.OnError(&err, "can't load configuration")

	// Use command-line flag for verbosity until configuration is parsed
	v, err := cmd.Flags().GetCount("verbosity")
	if err != nil {
		return fmt.Errorf("internal error: no persistent verbosity flags installed on cmd: %w", err)
	}
	setVerboseMode(v)

	// Find a valid configuration file
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(name)
		vip.AddConfigPath("./")
		vip.AddConfigPath("$HOME/")
		if binPath, err := os.Executable(); err != nil {
			log.Warningf(context.Background(), "Failed to get the current executable path, not adding it as a config dir: %v", err)
		} else {
			vip.AddConfigPath(filepath.Dir(binPath))
		}
	}

	// Load the config
	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if errors.As(err, &e) {
			log.Infof(context.Background(), "No configuration file: %v", e)
		} else {
			return fmt.Errorf("invalid configuration file: %v", err)
		}
	} else {
		log.Infof(context.Background(), "Using configuration file: %v", vip.ConfigFileUsed())
	}

	// Parse environment variables
	vip.SetEnvPrefix("LANGPACK")
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	return nil
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, viper *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v", i18n.G("issue INFO (-v), DEBUG (-vv) or DEBUG with caller (-vvv) output"))
	if err := viper.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")); err != nil {
		log.Warning(context.Background(), err)
	}
	return r
}

// installConfigFlag adds the --config flag to allow for custom config paths.
func installConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().StringP("config", "c", "", i18n.G("configuration file path"))
}

// installProjectFlags adds the flags selecting the project and the compilation policy.
func (a *App) installProjectFlags() {
	flags := a.rootCmd.PersistentFlags()
	flags.StringP("project", "p", consts.ProjectFileName, i18n.G("project descriptor path"))
	flags.StringP("output", "o", "", i18n.G("output directory, defaults to build/i18n under the project root"))
	flags.Bool("keep-fuzzy", false, i18n.G("compile fuzzy translations instead of dropping them"))
	flags.String("orphan-policy", "drop", i18n.G("what to do with translations of strings absent from the sources: drop, fail or keep"))
	flags.String("base-locale", consts.DefaultBaseLocale, i18n.G("source language of the strings, used as fallback"))
	flags.Bool("strict-acquisition", false, i18n.G("fail when the catalog of a locale cannot be acquired"))
	flags.Int("year", 0, i18n.G("year written in copyright headers, defaults to the current year"))
	flags.Bool("emit-mo", false, i18n.G("also write GNU MO files"))
	flags.IntP("jobs", "j", 0, i18n.G("number of locales compiled in parallel, defaults to the number of CPUs"))

	for _, name := range []string{"project", "output", "keep-fuzzy", "orphan-policy", "base-locale", "strict-acquisition", "year", "emit-mo", "jobs"} {
		if err := a.viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			log.Warning(context.Background(), err)
		}
	}
}

// setVerboseMode changes ErrorFormat and logs between very, middly and non verbose.
func setVerboseMode(level int) {
	var reportCaller bool
	switch level {
	case 0:
		logrus.SetLevel(consts.DefaultLogLevel)
	case 1:
		logrus.SetLevel(logrus.InfoLevel)
	case 3:
		reportCaller = true
		fallthrough
	default:
		logrus.SetLevel(logrus.DebugLevel)
	}
	log.SetReportCaller(reportCaller)
}
