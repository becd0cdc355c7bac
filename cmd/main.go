package main

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/fs"
	"github.com/cyverse/go-irodsgrid/utils"
)

var (
	configPath  string
	logPath     string
	logLevel    string
	enableProfile bool

	config *commons.Config
)

var rootCmd = &cobra.Command{
	Use:           "igridctl",
	Short:         "A command-line iRODS client",
	Long:          `igridctl navigates the iRODS virtual filesystem and moves data in and out of the grid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return processConfig()
	},
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})

	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "main",
	})

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config YAML file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "log file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level")
	rootCmd.PersistentFlags().BoolVar(&enableProfile, "profile", false, "enable cpu profiling")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mvCmd)

	// flags are parsed inside Execute, so profiling has to be decided from
	// the raw arguments to wrap the whole run
	for _, arg := range os.Args[1:] {
		if arg == "--profile" {
			defer profile.Start(profile.CPUProfile).Stop()
			break
		}
	}

	err := rootCmd.Execute()
	if err != nil {
		logger.Errorf("%+v", err)
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

// processConfig layers defaults, the YAML file and environment overrides,
// then wires logging
func processConfig() error {
	cfg := commons.NewDefaultConfig()

	if len(configPath) > 0 {
		expandedPath, err := utils.ExpandHomeDir(configPath)
		if err != nil {
			return err
		}

		loaded, err := commons.NewConfigFromYAMLFile(cfg, expandedPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	loaded, err := commons.NewConfigFromENV(cfg)
	if err != nil {
		return err
	}
	cfg = loaded

	if len(logLevel) > 0 {
		cfg.LogLevel = logLevel
	}
	if len(logPath) > 0 {
		cfg.LogPath = logPath
	}

	if len(cfg.LogLevel) > 0 {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if len(cfg.LogPath) > 0 {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}

	config = cfg
	return nil
}

// newFileSystem validates the config, prompting for a password when none is
// configured, and connects
func newFileSystem() (*fs.FileSystem, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	if len(config.Password) == 0 {
		fmt.Fprint(os.Stderr, "Password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}

		config.Password = string(passwordBytes)
	}

	account, err := config.ToAccount()
	if err != nil {
		return nil, err
	}

	return fs.NewFileSystem(account, config)
}
