package utils

const (
	// GitIgnoreFileName is the name of the Git ignore file consulted during traversal.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// GlobalConfigDirectoryName is the directory under the user home that holds global configuration.
	GlobalConfigDirectoryName = ".config/riveter"
	// ConfigFileName is the name of the per-project configuration file.
	ConfigFileName = ".riveter.yaml"

	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage reports a fatal application error.
	ApplicationExecutionFailedMessage = "Error"
)
