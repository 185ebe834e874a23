// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Lockbox using the Cobra
// library. It defines the root command, the vault subcommands (add, get,
// list, update, delete, change-password), flags, and the session plumbing
// that authenticates and opens the vault for each invocation.

package cli

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/lockbox/buildvars"
	"github.com/toeirei/lockbox/internal/auth"
	"github.com/toeirei/lockbox/internal/config"
	"github.com/toeirei/lockbox/internal/db"
	"github.com/toeirei/lockbox/internal/i18n"
	"github.com/toeirei/lockbox/internal/logging"
	"github.com/toeirei/lockbox/internal/vault"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var cfgFile string
var debugFlag bool

var appConfig config.Config

// setupDefaultServices loads the configuration and initializes i18n and
// logging. It runs before every command; the vault itself is opened lazily
// by withVault so that help and version output never prompt for a password.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	var err error
	appConfig, err = config.LoadConfig(cmd, cfgFile)
	if err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return errors.New(i18n.T("errors.config", err))
		}
	}

	// Persist a default config on first run so the storage paths are
	// discoverable and editable afterwards.
	if !config.ConfigFileExists() {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			logging.Errorf("could not write default config file: %v", writeErr)
		}
	}

	i18n.Init(appConfig.Language)

	if debugFlag || appConfig.Debug {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	return nil
}

// withVault authenticates the user, opens the vault session, runs fn, and
// tears the session down again. Every data command goes through here.
func withVault(fn func(v *vault.Vault) error) error {
	if err := config.EnsureStorage(appConfig); err != nil {
		return err
	}

	gate := auth.NewGate(appConfig.Storage.PasswordFile)
	status, err := gate.Status()
	if err != nil {
		return err
	}

	password, err := gate.Authenticate(newTerminalPrompter())
	if err != nil {
		if errors.Is(err, auth.ErrAuthentication) {
			return errors.New(i18n.T("auth.incorrect"))
		}
		return err
	}
	if status == auth.Initialized {
		fmt.Println(i18n.T("auth.verified"))
	}

	store, err := db.Open(appConfig.Storage.Database)
	if err != nil {
		return errors.New(i18n.T("errors.open_store", err))
	}

	v, err := vault.Open(store, gate, password, appConfig.Storage.LockPath())
	if err != nil {
		_ = store.Close()
		if errors.Is(err, vault.ErrLocked) {
			return errors.New(i18n.T("vault.locked"))
		}
		return err
	}
	defer func() {
		if closeErr := v.Close(); closeErr != nil {
			logging.Errorf("failed to close vault session: %v", closeErr)
		}
	}()

	return fn(v)
}

// Execute runs the CLI entrypoint. The root main package calls this and
// handles process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command. Tests use it
// to build isolated instances.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockbox",
		Short: "Lockbox is a local, password-protected credential vault.",
		Long: `Lockbox keeps credentials encrypted on your own machine.
A single master password gates every session; each stored record is
encrypted with its own salted key, so nothing readable ever touches
the disk. Records are free-form key/value maps (username, password,
URL, notes) addressed by a unique name.

Running without a subcommand shows this help.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupDefaultServices,
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "v", false, "Enable debug output (includes DB logs)")
	cmd.PersistentFlags().String("language", "", `output language ("en", "de")`)

	applyRecordRefFlag(updateCmd)
	applyRecordRefFlag(deleteCmd)
	if getCmd.Flags().Lookup("copy") == nil {
		getCmd.Flags().StringVarP(&copyKey, "copy", "c", "", "Copy the value of this item to the clipboard instead of printing the record")
	}

	cmd.AddCommand(
		addCmd,
		getCmd,
		listCmd,
		updateCmd,
		deleteCmd,
		changePasswordCmd,
	)

	return cmd
}

// applyRecordRefFlag registers the --id flag on commands that can address a
// record by numeric ID. Guarded because NewRootCmd may be called multiple
// times in tests while the subcommands are package-level.
func applyRecordRefFlag(cmd *cobra.Command) {
	if cmd.Flags().Lookup("id") == nil {
		cmd.Flags().Int64("id", 0, "Address the record by its numeric ID instead of its name")
	}
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime. Separated out to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/toeirei/lockbox" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedCommit != "" && resolvedCommit != "dev" && len(resolvedCommit) > 12 {
		resolvedCommit = resolvedCommit[:12]
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
