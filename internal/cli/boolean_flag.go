package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName        = "bool"
	toggleFlagTrueLiteral     = "true"
	toggleFlagAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	toggleFlagInvalidValueFmt = "invalid boolean value %q for --%s; accepted values: %s"
)

var toggleFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// spacedToggleLiterals may follow a toggle flag as a separate argument. Short
// literals such as "t" or "1" are only accepted after "=", since they are
// plausible folder names.
var spacedToggleLiterals = map[string]struct{}{
	"true":  {},
	"false": {},
	"yes":   {},
	"no":    {},
	"on":    {},
	"off":   {},
}

func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	value, known := toggleFlagLiterals[normalized]
	return value, known
}

// toggleFlagValue is a boolean pflag.Value that accepts yes/no/on/off literals.
type toggleFlagValue struct {
	target *bool
	name   string
}

func (value *toggleFlagValue) Set(input string) error {
	parsed, known := parseToggleLiteral(input)
	if !known || value.target == nil {
		return fmt.Errorf(toggleFlagInvalidValueFmt, input, value.name, toggleFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || value.target == nil {
		return "false"
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeName
}

// registerToggleFlag adds a boolean flag that may be given bare or with a literal value.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = false
	flagSet.Var(&toggleFlagValue{target: target, name: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = "false"
		lookup.NoOptDefVal = toggleFlagTrueLiteral
	}
}

// normalizeToggleArguments rewrites "--flag value" into "--flag=value" for toggle
// flags followed by a boolean literal, so the literal is not taken as a positional argument.
func normalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	toggleNames := map[string]struct{}{}
	collectToggleFlagNames(command, toggleNames)
	if len(toggleNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(current, "--") && !strings.Contains(current, "=") && index+1 < len(arguments) {
			name := strings.TrimPrefix(current, "--")
			next := arguments[index+1]
			if _, isToggle := toggleNames[name]; isToggle && !strings.HasPrefix(next, "-") && strings.TrimSpace(next) != "" {
				if _, spaced := spacedToggleLiterals[strings.ToLower(strings.TrimSpace(next))]; spaced {
					normalized = append(normalized, current+"="+next)
					index++
					continue
				}
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func collectToggleFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == toggleFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectToggleFlagNames(child, target)
	}
}
