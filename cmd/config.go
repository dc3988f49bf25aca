package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "weave.dev/pkg/weave/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "weave"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName   = "output"
	journalFlagName  = "journal"
	verboseFlagName  = "verbose"
	parallelFlagName = "parallel"
	diffFlagName     = "diff"
	numbersFlagName  = "line-numbers"

	optimizeKey              = "compile.optimize"
	treatWarningsAsErrorsKey = "compile.treat_warnings_as_errors"
	warningLevelKey          = "compile.warning_level"
	inMemoryKey              = "compile.in_memory"
	parallelConfigKey        = "compile.parallel"

	defaultOutputDir             = ""
	defaultJournal               = ".weave/journal.msgpack"
	defaultOptimize              = true
	defaultTreatWarningsAsErrors = false
	defaultWarningLevel          = 3
	defaultInMemory              = true
	defaultParallel              = 1

	envPrefix = "WEAVE"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".weave.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

// configDefaults seeds viper; weave init writes them out as weave.yaml.
var configDefaults = map[string]any{
	configVersionKey:         currentConfigVersion,
	outputFlagName:           defaultOutputDir,
	journalFlagName:          defaultJournal,
	optimizeKey:              defaultOptimize,
	treatWarningsAsErrorsKey: defaultTreatWarningsAsErrors,
	warningLevelKey:          defaultWarningLevel,
	inMemoryKey:              defaultInMemory,
	parallelConfigKey:        defaultParallel,
	logFilenameKey:           defaultLogFilename,
	logLevelKey:              defaultLogLevel,
	logVerboseKey:            defaultLogVerbose,
	logMaxSizeKey:            defaultLogMaxSize,
	logMaxBackupsKey:         defaultLogMaxBackups,
	logMaxAgeKey:             defaultLogMaxAge,
	logCompressKey:           defaultLogCompress,
}

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	for key, value := range configDefaults {
		viper.SetDefault(key, value)
	}

	// A missing weave.yaml leaves the defaults in place.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("ignoring unreadable config", "file", viper.ConfigFileUsed(), "error", err)
		}
	}
}

// compileOptions reads the toolchain options from flags, env and config.
func compileOptions() m.CompileOptions {
	return m.CompileOptions{
		Optimize:              viper.GetBool(optimizeKey),
		TreatWarningsAsErrors: viper.GetBool(treatWarningsAsErrorsKey),
		WarningLevel:          viper.GetInt(warningLevelKey),
		GenerateInMemory:      viper.GetBool(inMemoryKey),
		DumpDir:               m.Path(viper.GetString(outputFlagName)),
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
