// Package cli provides the dirsnap command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/config"
	"github.com/temirov/dirsnap/internal/services/clipboard"
	"github.com/temirov/dirsnap/internal/utils"
)

const (
	exclusionFlagName      = "exclude"
	exclusionFlagShorthand = "e"
	noGitignoreFlagName    = "no-gitignore"
	configFlagName         = "config"
	copyFlagName           = "copy"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	watchFlagName          = "watch"
	quietFlagName          = "quiet"
	versionFlagName        = "version"
	globalFlagName         = "global"
	forceFlagName          = "force"

	versionTemplate      = "dirsnap version: %s\n"
	rootUse              = "dirsnap <input_folder> <output_file>"
	rootShortDescription = "write a directory tree and file contents into one text snapshot"
	rootLongDescription  = `dirsnap writes a single text document describing a project directory:
an ASCII tree of its structure followed by the contents of every file that is
not ignored. Patterns come from the root .gitignore, the built-in defaults and
-e/--exclude. Use "-" as the output file to write to standard output.`
	rootUsageExample = `  # Snapshot the current project
  dirsnap . snapshot.txt

  # Skip build output and copy the snapshot to the clipboard
  dirsnap -e dist/ -e "*.log" --copy ./app app.txt

  # Regenerate after every change and report a token estimate
  dirsnap --watch --tokens . context.txt`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a default configuration file to .dirsnap.yaml in the working
directory, or to ~/.dirsnap/config.yaml with --global.`

	exclusionFlagDescription   = "exclude path pattern (repeatable)"
	noGitignoreFlagDescription = "do not use the root .gitignore"
	configFlagDescription      = "path to a configuration file"
	copyFlagDescription        = "also copy the snapshot to the clipboard"
	tokensFlagDescription      = "estimate the number of tokens in the snapshot"
	modelFlagDescription       = "tokenizer model to use for token counting"
	watchFlagDescription       = "regenerate the snapshot whenever files change"
	quietFlagDescription       = "only report warnings and errors"
	versionFlagDescription     = "display application version"
	globalFlagDescription      = "write the global configuration file"
	forceFlagDescription       = "overwrite an existing configuration file"

	initializedConfigurationFormat = "Wrote configuration to %s\n"
)

// applicationDependencies holds collaborators that tests replace.
type applicationDependencies struct {
	newLogger func(quiet bool) (*zap.Logger, error)
	copier    clipboard.Copier
	stdout    io.Writer
}

func defaultDependencies() applicationDependencies {
	return applicationDependencies{
		newLogger: func(quiet bool) (*zap.Logger, error) {
			if quiet {
				return utils.NewQuietLogger()
			}
			return utils.NewApplicationLogger()
		},
		copier: clipboard.NewService(),
		stdout: os.Stdout,
	}
}

// snapshotFlags stores the values of the root command flags.
type snapshotFlags struct {
	exclusionPatterns []string
	disableGitignore  bool
	configPath        string
	copyToClipboard   bool
	tokensEnabled     bool
	tokenModel        string
	watchEnabled      bool
	quiet             bool
}

// Execute runs the dirsnap application.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCommand := createRootCommand(defaultDependencies())
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(dependencies applicationDependencies) *cobra.Command {
	var showVersion bool
	var flags snapshotFlags

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		SilenceUsage: true,
		Args: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(command, arguments)
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveSettings(command, flags)
			if settingsError != nil {
				return settingsError
			}
			return runSnapshot(command.Context(), dependencies, arguments[0], arguments[1], settings)
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	flagSet := rootCommand.Flags()
	flagSet.StringArrayVarP(&flags.exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	registerToggleFlag(flagSet, &flags.disableGitignore, noGitignoreFlagName, noGitignoreFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	registerToggleFlag(flagSet, &flags.copyToClipboard, copyFlagName, copyFlagDescription)
	registerToggleFlag(flagSet, &flags.tokensEnabled, tokensFlagName, tokensFlagDescription)
	flagSet.StringVar(&flags.tokenModel, modelFlagName, "", modelFlagDescription)
	registerToggleFlag(flagSet, &flags.watchEnabled, watchFlagName, watchFlagDescription)
	registerToggleFlag(flagSet, &flags.quiet, quietFlagName, quietFlagDescription)

	rootCommand.AddCommand(createInitCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), initializedConfigurationFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&globalTarget, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
