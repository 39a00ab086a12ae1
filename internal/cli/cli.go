// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d4mr/riveter/internal/config"
	"github.com/d4mr/riveter/internal/output"
	"github.com/d4mr/riveter/internal/rules"
	"github.com/d4mr/riveter/internal/services/clipboard"
	"github.com/d4mr/riveter/internal/tokenizer"
	"github.com/d4mr/riveter/internal/types"
	"github.com/d4mr/riveter/internal/utils"
	"github.com/d4mr/riveter/internal/walker"
)

const (
	directoryFlagName        = "directory"
	formatFlagName           = "format"
	maxDepthFlagName         = "max-depth"
	excludeFlagName          = "exclude"
	respectGitignoreFlagName = "respect-gitignore"
	tokensFlagName           = "tokens"
	modelFlagName            = "model"
	copyFlagName             = "copy"
	configFlagName           = "config"
	versionFlagName          = "version"

	directoryFlagShorthand = "d"
	formatFlagShorthand    = "f"
	maxDepthFlagShorthand  = "m"
	excludeFlagShorthand   = "x"

	versionTemplate  = "riveter version: %s\n"
	defaultDirectory = "."
	defaultModelName = "gpt-4o"

	rootUse              = "riveter"
	rootShortDescription = "generate directory structure and file contents for LLM context"
	rootLongDescription  = `riveter processes a directory, creating a structure view (text tree or XML)
and concatenating readable file contents. It uses gitignore-style patterns
for exclusion and optionally respects .gitignore files. Defaults to the
current directory if none is specified.`
	rootUsageExample = `  # Render the current directory as text
  riveter

  # Render a project as XML, excluding build output
  riveter -d ./project -f xml -x target -x "*.lock"

  # Limit traversal to the first two levels, ignoring .gitignore files
  riveter -m 2 --respect-gitignore false`

	directoryFlagDescription        = "the directory to process"
	formatFlagDescription           = "output format (text or xml)"
	maxDepthFlagDescription         = "maximum depth to traverse (0 means no limit)"
	excludeFlagDescription          = "gitignore-style pattern to exclude, applied after .gitignore rules"
	respectGitignoreFlagDescription = "respect .gitignore files found in the directory structure"
	tokensFlagDescription           = "report a token count summary on standard error"
	modelFlagDescription            = "tokenizer model to use for token counting"
	copyFlagDescription             = "copy the rendered output to the system clipboard"
	configFlagDescription           = "path to a configuration file"
	versionFlagDescription          = "display application version"

	invalidFormatMessage   = "Invalid format value '%s'"
	invalidMaxDepthMessage = "max depth must be zero or positive, got %d"
	errorBuildRulesFormat  = "Failed to build exclusion rules: %v"

	processingDirectoryFormat  = "Processing directory: %s"
	respectingGitignoreMessage = "Respecting .gitignore files."
	applyingExcludesFormat     = "Applying exclude patterns: %v"

	warningTokenizerFormat  = "Warning: token counting unavailable: %v"
	warningTokenCountFormat = "Warning: failed to count tokens for %s: %v"
	warningClipboardFormat  = "Warning: failed to copy output to clipboard: %v"
	tokenSummaryFormat      = "Token summary: %d files, %s, %d tokens (model %s)"
)

// rootOptions stores the effective configuration for one invocation after
// flags and configuration files have been merged.
type rootOptions struct {
	directory        string
	format           string
	maxDepth         int
	excludePatterns  []string
	respectGitignore bool
	tokensEnabled    bool
	tokenModel       string
	copyEnabled      bool
	configPath       string
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatText, types.FormatXML:
		return true
	default:
		return false
	}
}

// Execute runs the riveter application.
func Execute() error {
	rootCommand := createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool
	options := rootOptions{}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if mergeError := applyConfigurationDefaults(command, &options); mergeError != nil {
				return mergeError
			}
			options.format = strings.ToLower(options.format)
			if !isSupportedFormat(options.format) {
				return fmt.Errorf(invalidFormatMessage, options.format)
			}
			if options.maxDepth < 0 {
				return fmt.Errorf(invalidMaxDepthMessage, options.maxDepth)
			}
			return run(command, options)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&options.directory, directoryFlagName, directoryFlagShorthand, defaultDirectory, directoryFlagDescription)
	flagSet.StringVarP(&options.format, formatFlagName, formatFlagShorthand, types.FormatText, formatFlagDescription)
	flagSet.IntVarP(&options.maxDepth, maxDepthFlagName, maxDepthFlagShorthand, 0, maxDepthFlagDescription)
	flagSet.StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	registerBooleanFlag(flagSet, &options.respectGitignore, respectGitignoreFlagName, true, respectGitignoreFlagDescription)
	flagSet.BoolVar(&options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, defaultModelName, modelFlagDescription)
	flagSet.BoolVar(&options.copyEnabled, copyFlagName, false, copyFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	return rootCommand
}

// applyConfigurationDefaults overlays configuration-file values onto options
// for every flag the user did not set explicitly.
func applyConfigurationDefaults(command *cobra.Command, options *rootOptions) error {
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return configurationError
	}

	flagSet := command.Flags()
	if !flagSet.Changed(formatFlagName) && applicationConfiguration.Format != "" {
		options.format = applicationConfiguration.Format
	}
	if !flagSet.Changed(maxDepthFlagName) && applicationConfiguration.MaxDepth != nil {
		options.maxDepth = *applicationConfiguration.MaxDepth
	}
	if len(applicationConfiguration.Exclude) > 0 {
		combined := append(append([]string{}, applicationConfiguration.Exclude...), options.excludePatterns...)
		options.excludePatterns = utils.DeduplicatePatterns(combined)
	}
	if !flagSet.Changed(respectGitignoreFlagName) && applicationConfiguration.RespectGitignore != nil {
		options.respectGitignore = *applicationConfiguration.RespectGitignore
	}
	if !flagSet.Changed(tokensFlagName) && applicationConfiguration.Tokens.Enabled != nil {
		options.tokensEnabled = *applicationConfiguration.Tokens.Enabled
	}
	if !flagSet.Changed(modelFlagName) && applicationConfiguration.Tokens.Model != "" {
		options.tokenModel = applicationConfiguration.Tokens.Model
	}
	if !flagSet.Changed(copyFlagName) && applicationConfiguration.Clipboard != nil {
		options.copyEnabled = *applicationConfiguration.Clipboard
	}
	return nil
}

// run executes the walk-and-render pipeline: root resolution, override
// building, traversal, and rendering. The rendered document goes to standard
// output only; every diagnostic goes to standard error.
func run(command *cobra.Command, options rootOptions) error {
	stdout := command.OutOrStdout()
	stderr := command.ErrOrStderr()
	warn := func(message string) {
		fmt.Fprintln(stderr, message)
	}

	rootPath, rootError := resolveRoot(options.directory)
	if rootError != nil {
		return rootError
	}

	overrides, buildError := rules.Build(rootPath, options.excludePatterns, warn)
	if buildError != nil {
		return fmt.Errorf(errorBuildRulesFormat, buildError)
	}

	fmt.Fprintf(stderr, processingDirectoryFormat+"\n", rootPath)
	if options.respectGitignore {
		fmt.Fprintln(stderr, respectingGitignoreMessage)
	}
	if len(options.excludePatterns) > 0 {
		fmt.Fprintf(stderr, applyingExcludesFormat+"\n", options.excludePatterns)
	}

	walkResult, walkError := walker.Walk(walker.Options{
		Root:             rootPath,
		Overrides:        overrides,
		RespectGitignore: options.respectGitignore,
		MaxDepth:         options.maxDepth,
		Warn:             warn,
		Info:             warn,
	})
	if walkError != nil {
		return walkError
	}

	if options.tokensEnabled {
		reportTokenTotals(stderr, walkResult.Files, options.tokenModel)
	}

	var rendered bytes.Buffer
	var renderError error
	switch options.format {
	case types.FormatXML:
		renderError = output.WriteXML(&rendered, rootPath, walkResult.Entries, walkResult.Files)
	default:
		renderError = output.WriteText(&rendered, rootPath, walkResult.Entries, walkResult.Files)
	}
	if renderError != nil {
		return renderError
	}

	if _, writeError := stdout.Write(rendered.Bytes()); writeError != nil {
		return writeError
	}

	if options.copyEnabled {
		if copyError := clipboard.NewService().Copy(rendered.String()); copyError != nil {
			warn(fmt.Sprintf(warningClipboardFormat, copyError))
		}
	}
	return nil
}

// reportTokenTotals prints a token count summary for the loaded files to
// standard error. Counting failures degrade to warnings.
func reportTokenTotals(stderr io.Writer, files []types.LoadedFile, model string) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		fmt.Fprintf(stderr, warningTokenizerFormat+"\n", counterError)
		return
	}

	var totalTokens int
	var totalBytes int64
	for _, loadedFile := range files {
		tokens, countError := counter.CountString(loadedFile.Content)
		if countError != nil {
			fmt.Fprintf(stderr, warningTokenCountFormat+"\n", loadedFile.RelativePath, countError)
			continue
		}
		totalTokens += tokens
		totalBytes += loadedFile.SizeBytes
	}
	fmt.Fprintf(stderr, tokenSummaryFormat+"\n", len(files), utils.FormatFileSize(totalBytes), totalTokens, resolvedModel)
}
