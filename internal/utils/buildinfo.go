package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion         = "unknown"
	develBuildVersion      = "(devel)"
	gitExecutableName      = "git"
	gitDescribeFailedLabel = "git describe failed"
)

// applicationVersion is injected at build time with
// -ldflags "-X github.com/temirov/dirsnap/internal/utils.applicationVersion=v1.2.3".
var applicationVersion string

// GetApplicationVersion determines the application version.
// Link-time injection wins, then Go build info, then git describe in the enclosing repository.
func GetApplicationVersion() string {
	if strings.TrimSpace(applicationVersion) != "" {
		return strings.TrimSpace(applicationVersion)
	}

	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develBuildVersion {
		return buildInfo.Main.Version
	}

	repositoryDirectory, repositoryLookupError := findGitDirectory(".")
	if repositoryLookupError != nil || repositoryDirectory == "" {
		return unknownVersion
	}
	for _, describeArguments := range [][]string{
		{"describe", "--tags", "--exact-match"},
		{"describe", "--tags", "--long", "--dirty"},
	} {
		describedVersion, describeError := describeRepository(repositoryDirectory, describeArguments)
		if describeError == nil && describedVersion != "" {
			return describedVersion
		}
	}
	return unknownVersion
}

func describeRepository(repositoryDirectory string, arguments []string) (string, error) {
	// #nosec G204
	describeCommand := exec.Command(gitExecutableName, arguments...)
	describeCommand.Dir = repositoryDirectory
	describeOutput, describeError := describeCommand.Output()
	if describeError != nil {
		return "", fmt.Errorf("%s: %w", gitDescribeFailedLabel, describeError)
	}
	return strings.TrimSpace(string(describeOutput)), nil
}

// findGitDirectory searches upward from the provided starting directory
// until it locates a directory containing the .git folder and returns
// the path to that directory.
func findGitDirectory(startDirectory string) (string, error) {
	absoluteStartDirectory, errorAbsolute := filepath.Abs(startDirectory)
	if errorAbsolute != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDirectory, errorAbsolute)
	}

	currentDirectory := absoluteStartDirectory
	for {
		gitPath := filepath.Join(currentDirectory, GitDirectoryName)
		fileInformation, errorStat := os.Stat(gitPath)
		if errorStat == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	return "", fmt.Errorf(".git directory not found in or above %s", absoluteStartDirectory)
}
