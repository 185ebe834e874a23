// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// commands.go holds the vault subcommands. Each one opens an authenticated
// session through withVault and talks to the vault API; all terminal
// interaction stays in this package.

package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/toeirei/lockbox/internal/i18n"
	"github.com/toeirei/lockbox/internal/model"
	"github.com/toeirei/lockbox/internal/vault"
)

var copyKey string // Flag for get --copy

// recordRef builds the record reference from the --id flag or the name
// argument, plus a human-readable label for error messages.
func recordRef(cmd *cobra.Command, args []string) (model.RecordRef, string, error) {
	if cmd.Flags().Changed("id") {
		id, err := cmd.Flags().GetInt64("id")
		if err != nil {
			return model.RecordRef{}, "", err
		}
		return model.ByID(id), "#" + strconv.FormatInt(id, 10), nil
	}
	if len(args) == 0 {
		return model.RecordRef{}, "", errors.New("provide a record name or --id")
	}
	return model.ByName(args[0]), args[0], nil
}

// notFoundErr reports a missing record and lists the stored names so the
// user can correct the invocation.
func notFoundErr(v *vault.Vault, label string) error {
	if names, err := v.Names(); err == nil && len(names) > 0 {
		fmt.Println(i18n.T("vault.stored_names"))
		renderNames(os.Stdout, names)
	}
	return errors.New(i18n.T("vault.not_found", label))
}

// addCmd interactively collects a new credential and stores it encrypted.
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new credential to the vault",
	Long: `Prompts for a unique record name and a set of key/value items
(for example Email, Password, URL), shows a preview, and stores the record
encrypted under the master password.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *vault.Vault) error {
			var name string
			fmt.Println(i18n.T("add.name_instruction"))
			for {
				entered, err := promptLine(i18n.T("add.name_prompt"))
				if err != nil {
					return err
				}
				if entered == "" {
					fmt.Println(i18n.T("add.name_empty"))
					continue
				}
				exists, err := v.Exists(entered)
				if err != nil {
					return err
				}
				if exists {
					fmt.Println(i18n.T("add.duplicate", entered))
					continue
				}
				name = entered
				break
			}

			items, err := promptItems()
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(i18n.T("add.preview"))
			renderCredential(os.Stdout, model.DecryptedCredential{Name: name, Items: items})

			ok, err := confirm(i18n.T("add.confirm"), true)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(i18n.T("add.cancelled"))
				return nil
			}

			if err := v.Insert(name, items); err != nil {
				return err
			}
			fmt.Println(i18n.T("add.saved", name))
			return nil
		})
	},
}

// getCmd prints one decrypted credential, or copies a single item value to
// the clipboard with --copy.
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *vault.Vault) error {
			name := args[0]
			cred, err := v.Get(name)
			if err != nil {
				return err
			}
			if cred == nil {
				return notFoundErr(v, name)
			}

			if copyKey != "" {
				value, ok := cred.Items[copyKey]
				if !ok {
					return errors.New(i18n.T("get.copy_missing_key", name, copyKey))
				}
				if err := clipboard.WriteAll(value); err != nil {
					return err
				}
				fmt.Println(i18n.T("get.copied", copyKey))
				return nil
			}

			renderCredential(os.Stdout, *cred)
			return nil
		})
	},
}

// listCmd prints the stored record names without decrypting any payload.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the names of all stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *vault.Vault) error {
			names, err := v.Names()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println(i18n.T("vault.empty_hint"))
				return nil
			}
			fmt.Println(i18n.T("vault.stored_names"))
			renderNames(os.Stdout, names)
			return nil
		})
	},
}

// updateCmd walks through each stored item of a record, letting the user
// rename or remove keys, change values, add new pairs, and rename the
// record, then re-encrypts and saves the result.
var updateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Update a stored credential",
	Long: `Walks through the record's items one by one. For each item you can
keep the key (press Enter), rename it, or remove it (enter a blank key);
then keep or replace its value. Afterwards you can add new items and
rename the record. Nothing is written until you confirm.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, label, err := recordRef(cmd, args)
		if err != nil {
			return err
		}
		return withVault(func(v *vault.Vault) error {
			cred, err := v.Lookup(ref)
			if err != nil {
				if errors.Is(err, vault.ErrNotFound) {
					return notFoundErr(v, label)
				}
				return err
			}

			renderCredential(os.Stdout, *cred)
			fmt.Println()
			fmt.Println(i18n.T("update.intro"))

			newItems := map[string]string{}
			keys := make([]string, 0, len(cred.Items))
			for key := range cred.Items {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				newKey, err := promptLine(i18n.T("update.key_prompt", key))
				if err != nil {
					return err
				}
				if newKey == "" {
					continue
				}
				newValue, err := promptLine(i18n.T("update.value_prompt", cred.Items[key]))
				if err != nil {
					return err
				}
				if newValue == "" {
					newValue = cred.Items[key]
				}
				newItems[newKey] = newValue
			}

			fmt.Println(i18n.T("update.add_intro"))
			fmt.Println(i18n.T("add.key_instruction"))
			for {
				key, err := promptLine(i18n.T("add.key_prompt"))
				if err != nil {
					return err
				}
				if key == "" {
					break
				}
				if _, dup := newItems[key]; dup {
					fmt.Println(i18n.T("add.key_duplicate", key))
					continue
				}
				value, err := promptLine(i18n.T("add.value_prompt"))
				if err != nil {
					return err
				}
				newItems[key] = value
			}

			if len(newItems) == 0 {
				return errors.New(i18n.T("add.need_items"))
			}

			newName, err := promptLine(i18n.T("update.name_prompt", cred.Name))
			if err != nil {
				return err
			}
			if newName == "" {
				newName = cred.Name
			}

			fmt.Println()
			fmt.Println(i18n.T("add.preview"))
			renderCredential(os.Stdout, model.DecryptedCredential{Name: newName, Items: newItems})

			ok, err := confirm(i18n.T("update.confirm"), true)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(i18n.T("add.cancelled"))
				return nil
			}

			if err := v.Update(ref, newName, newItems); err != nil {
				if errors.Is(err, vault.ErrDuplicateName) {
					return errors.New(i18n.T("add.duplicate", newName))
				}
				return err
			}
			fmt.Println(i18n.T("update.updated", newName))
			return nil
		})
	},
}

// deleteCmd removes a record after showing it and asking for confirmation.
var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a stored credential",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, label, err := recordRef(cmd, args)
		if err != nil {
			return err
		}
		return withVault(func(v *vault.Vault) error {
			cred, err := v.Lookup(ref)
			if err != nil {
				if errors.Is(err, vault.ErrNotFound) {
					return notFoundErr(v, label)
				}
				return err
			}

			renderCredential(os.Stdout, *cred)

			ok, err := confirm(i18n.T("delete.confirm"), false)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(i18n.T("add.cancelled"))
				return nil
			}

			if err := v.Delete(ref); err != nil {
				return err
			}
			fmt.Println(i18n.T("delete.deleted", cred.Name))
			return nil
		})
	},
}

// changePasswordCmd rotates the master password and re-encrypts every
// stored record under the new one.
var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change the master password and re-encrypt all records",
	Long: `Asks for the current master password, then for a new one (with
confirmation). Every stored record is decrypted and re-encrypted with a
fresh salt under the new password; the change is applied atomically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *vault.Vault) error {
			prompter := newTerminalPrompter()
			newPassword, err := prompter.newPassword(i18n.T("auth.new_prompt"))
			if err != nil {
				return err
			}

			fmt.Println(i18n.T("change_password.reencrypting"))
			if err := v.ChangePassword(newPassword); err != nil {
				return err
			}
			fmt.Println(i18n.T("change_password.changed"))
			return nil
		})
	},
}
