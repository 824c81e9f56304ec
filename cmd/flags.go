package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/codeplay/internal/snippet"
)

// Output formats accepted by listing commands.
var outputFormats = []string{"table", "json", "yaml"}

// addFormatFlag registers --format/-f on cmd, restricted to allowed.
func addFormatFlag(cmd *cobra.Command, target *string, def string, allowed ...string) {
	cmd.Flags().StringVarP(target, "format", "f", def, fmt.Sprintf("Output format (%s)", strings.Join(allowed, "|")))
	AddFlagValidation(cmd.Flags(), "format", ValidateOneOf(allowed...))
}

// addLanguageFlag registers --language, used when a file's extension does
// not say what it contains.
func addLanguageFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "language", "", "Source language (html, css, javascript, react); inferred from the extension when empty")
	AddFlagValidation(cmd.Flags(), "language", func(val string) error {
		if val != "" && !snippet.ParseLanguage(val).Supported() {
			return fmt.Errorf("unsupported language %q", val)
		}
		return nil
	})
}

// bindFlags binds flags to viper configuration keys so that a flag set on
// the command line overrides the config file and the environment.
func bindFlags(cmd *cobra.Command, bindings map[string]string) {
	for flagName, configKey := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			_ = viper.BindPFlag(configKey, flag)
		}
	}
}

// AddFlagValidation makes the flag reject values for which validator
// returns an error, at parse time.
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: flag.Value.Set,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidatePort accepts 0 (pick any free port) through 65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateFileExists accepts an empty value or a path to a regular file.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	return nil
}

// ValidateOneOf returns a validator accepting only the given values.
func ValidateOneOf(allowed ...string) func(string) error {
	return func(val string) error {
		for _, a := range allowed {
			if val == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value %q, must be one of: %s", val, strings.Join(allowed, ", "))
	}
}

// languageFor resolves the language of path: the explicit name wins,
// otherwise the file extension decides.
func languageFor(name, path string) (snippet.Language, error) {
	if name != "" {
		return snippet.ParseLanguage(name), nil
	}
	lang := snippet.ParseLanguage(strings.TrimPrefix(filepath.Ext(path), "."))
	if !lang.Supported() {
		return snippet.LanguageUnknown, fmt.Errorf("cannot infer the language of %q, use --language", path)
	}
	return lang, nil
}

// readSource reads path, or standard input when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
