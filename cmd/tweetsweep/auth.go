package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tweetsweep/pkg/auth"
	"tweetsweep/pkg/config"
	"tweetsweep/pkg/ui"
)

var (
	// Auth command flags
	loginINI bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter API credentials.

Credentials are looked up in this order:
  - Configuration file, environment variables (TWEETSWEEP_*) and flags
  - The legacy credentials.txt INI file
  - System keychain (when available)
  - Encrypted file, unlocked with TWEETSWEEP_PASSPHRASE

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store Twitter API credentials",
	Long: `Store the four OAuth 1.0a secrets of a Twitter app.

You will be prompted for the consumer key and secret and the access token
key and secret. Run 'tweetsweep auth guide' to see where to find them.`,
	Example: `  # Store credentials under the default name
  tweetsweep auth login

  # Store a second account
  tweetsweep auth login work

  # Write credentials.txt instead of the secure stores
  tweetsweep auth login --ini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked credential information.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to obtain API credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(guideCmd)

	loginCmd.Flags().BoolVar(&loginINI, "ini", false, "write the legacy INI credentials file instead")
}

// credentialsPath is the INI file path after config and flags are applied
func credentialsPath() string {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return config.DefaultConfig().Twitter.CredentialsFile
	}
	return cfg.Twitter.CredentialsFile
}

func runLogin(cmd *cobra.Command, args []string) error {
	name := auth.DefaultAccount
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	var store interface{ Store(*auth.Account) error }
	if loginINI {
		store = auth.NewINIFileStore(credentialsPath())
	} else {
		manager, err := auth.NewManager("")
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if existing, _ := manager.Retrieve(name); existing != nil {
			ok, err := ui.Confirm(reader, os.Stdout, fmt.Sprintf("Account '%s' already exists and will be overwritten.", name))
			if err != nil || !ok {
				return err
			}
		}
		store = manager
	}

	fmt.Println("Enter your API secrets (input is hidden when run in a terminal):")
	fmt.Println()

	account := &auth.Account{Name: name}
	fields := []struct {
		prompt string
		target *string
	}{
		{"Consumer key", &account.ConsumerKey},
		{"Consumer secret", &account.ConsumerSecret},
		{"Access token key", &account.AccessTokenKey},
		{"Access token secret", &account.AccessTokenSecret},
	}
	for _, f := range fields {
		value, err := ui.ReadSecret(reader, os.Stdout, f.prompt+": ")
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.prompt, err)
		}
		*f.target = value
	}

	if err := store.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))
	if loginINI {
		ui.PrintWarning("Credentials were written in plain text to " + credentialsPath())
	}
	if name != auth.DefaultAccount {
		fmt.Printf("\nUse it with:\n  tweetsweep run --account %s ...\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(credentialsPath())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccount
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return fmt.Errorf("no stored account named %q", name)
		}
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(credentialsPath())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'tweetsweep auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Name: %s\n", i+1, sanitized.Name)
		fmt.Printf("   Consumer Key: %s\n", sanitized.ConsumerKey)
		fmt.Printf("   Access Token Key: %s\n", sanitized.AccessTokenKey)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}
