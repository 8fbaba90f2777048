package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/dirsnap/internal/config"
	"github.com/temirov/dirsnap/internal/tokenizer"
)

// snapshotSettings is the effective configuration of one invocation after
// configuration files and explicitly set flags are merged.
type snapshotSettings struct {
	exclusionPatterns []string
	skipDirectories   []string
	defaultIgnores    []string
	useGitignore      bool
	copyToClipboard   bool
	tokensEnabled     bool
	tokenModel        string
	watchEnabled      bool
	watchDebounce     time.Duration
	quiet             bool
}

// resolveSettings loads the configuration files and lets explicitly set flags override them.
func resolveSettings(command *cobra.Command, flags snapshotFlags) (snapshotSettings, error) {
	applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: flags.configPath,
	})
	if loadError != nil {
		return snapshotSettings{}, loadError
	}
	return mergeSettings(applicationConfiguration, flags, command.Flags().Changed), nil
}

func mergeSettings(applicationConfiguration config.ApplicationConfiguration, flags snapshotFlags, changed func(string) bool) snapshotSettings {
	snapshotConfiguration := applicationConfiguration.Snapshot
	settings := snapshotSettings{
		skipDirectories: snapshotConfiguration.SkipDirectories,
		defaultIgnores:  snapshotConfiguration.DefaultIgnores,
		useGitignore:    config.BoolOrDefault(snapshotConfiguration.UseGitignore, true),
		copyToClipboard: config.BoolOrDefault(snapshotConfiguration.Clipboard, false),
		tokensEnabled:   config.BoolOrDefault(snapshotConfiguration.Tokens.Enabled, false),
		tokenModel:      strings.TrimSpace(snapshotConfiguration.Tokens.Model),
		watchEnabled:    config.BoolOrDefault(applicationConfiguration.Watch.Enabled, false),
		watchDebounce:   applicationConfiguration.Watch.Debounce,
		quiet:           config.BoolOrDefault(snapshotConfiguration.Quiet, false),
	}
	settings.exclusionPatterns = append(settings.exclusionPatterns, snapshotConfiguration.Exclude...)
	settings.exclusionPatterns = append(settings.exclusionPatterns, flags.exclusionPatterns...)

	if changed(noGitignoreFlagName) {
		settings.useGitignore = !flags.disableGitignore
	}
	if changed(copyFlagName) {
		settings.copyToClipboard = flags.copyToClipboard
	}
	if changed(tokensFlagName) {
		settings.tokensEnabled = flags.tokensEnabled
	}
	if changed(modelFlagName) {
		settings.tokenModel = strings.TrimSpace(flags.tokenModel)
	}
	if changed(watchFlagName) {
		settings.watchEnabled = flags.watchEnabled
	}
	if changed(quietFlagName) {
		settings.quiet = flags.quiet
	}
	if settings.tokenModel == "" {
		settings.tokenModel = tokenizer.DefaultModel
	}
	return settings
}
