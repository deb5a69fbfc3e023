package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"starforge/internal/app"
	"starforge/internal/campaign"
	"starforge/internal/config"
	"starforge/internal/gateway"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and the environment secrets. When
// encryption is enabled and no passphrase is set, it prompts for one.
func loadConfig() (*config.Config, config.Secrets, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, config.Secrets{}, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, config.Secrets{}, fmt.Errorf("reading config: %w", err)
	}

	secrets, err := config.ReadSecrets()
	if err != nil {
		return nil, config.Secrets{}, fmt.Errorf("reading secrets: %w", err)
	}

	if cfg.Encryption.Type == "age" && secrets.Passphrase == "" {
		secrets.Passphrase, err = readPassphrase("Passphrase: ")
		if err != nil {
			return nil, config.Secrets{}, err
		}
	}
	return cfg, secrets, nil
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pw), nil
}

// withApp creates a StarforgeApp for one command, runs fn, and closes the app.
// Writes that failed in the background are reported as the command's error.
// operation identifies the CLI command being run (e.g. "CreateCampaign").
func withApp(ctx context.Context, operation string, fn func(a *app.StarforgeApp) error) error {
	cfg, secrets, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.NewStarforgeApp(ctx, cfg, secrets, operation)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	runErr := fn(a)
	if runErr != nil {
		a.Fail()
	}
	if err := a.Close(); err != nil {
		return errors.Join(runErr, fmt.Errorf("saving changes: %w", err))
	}
	return runErr
}

// readJSONArg returns the JSON given as the argument, or stdin when the argument is "-".
func readJSONArg(arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printWarning(warning string) {
	if warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
}

var rootCmd = &cobra.Command{
	Use:           "starforge",
	Short:         "Tabletop RPG campaign manager",
	SilenceUsage:  true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Campaigns Dir: %s\n", cfg.Storage.CampaignsDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Storage:     %s\n", cfg.Storage.Type)
		switch cfg.Storage.Type {
		case "directory":
			fmt.Printf("  Campaigns: %s\n", cfg.Storage.CampaignsDir)
		case "blob":
			fmt.Printf("  Store:     %s\n", cfg.Storage.BlobStore)
			fmt.Printf("  Key:       %s\n", cfg.Storage.BlobKey)
		}
		fmt.Printf("Persistence: %s\n", cfg.Persistence.Mode)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Language:    %s\n", cfg.Gateway.Language)
		fmt.Printf("Model:       %s\n", cfg.Gateway.Model)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt stored campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		pw, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pw != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		encCfg := cfg.Encryption
		encCfg.Type = "age"
		if err := app.SetupEncryption(encCfg, pw); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s\n", filepath.Dir(encCfg.PublicKeyPath))
		if cfg.Encryption.Type != "age" {
			fmt.Printf("Set type = \"age\" under [encryption] in %s to start encrypting campaigns.\n", defaults["config_path"])
		}
		return nil
	},
}

// campaign command
var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ListCampaigns", func(a *app.StarforgeApp) error {
			campaigns := a.ListCampaigns()
			if len(campaigns) == 0 {
				fmt.Println("No campaigns.")
				return nil
			}
			for _, c := range campaigns {
				fmt.Printf("%s  %-30s  %3d entities  updated %s\n",
					c.ID, c.Name, c.EntityCount(), c.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

var campaignShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a campaign as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ShowCampaign", func(a *app.StarforgeApp) error {
			c, err := a.GetCampaign(args[0])
			if err != nil {
				return err
			}
			doc, err := campaign.Export(c)
			if err != nil {
				return err
			}
			fmt.Println(string(doc))
			return nil
		})
	},
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		return withApp(cmd.Context(), "CreateCampaign", func(a *app.StarforgeApp) error {
			c, err := a.CreateCampaign(args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("Created campaign %s (%s)\n", c.Name, c.ID)
			return nil
		})
	},
}

var campaignUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Rename a campaign or change its description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch campaign.CampaignPatch
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			patch.Name = &name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			patch.Description = &description
		}
		return withApp(cmd.Context(), "UpdateCampaign", func(a *app.StarforgeApp) error {
			c, err := a.UpdateCampaign(args[0], patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated campaign %s (%s)\n", c.Name, c.ID)
			return nil
		})
	},
}

var campaignDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a campaign and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "DeleteCampaign", func(a *app.StarforgeApp) error {
			deleted, err := a.DeleteCampaign(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Printf("No campaign %s.\n", args[0])
				return nil
			}
			fmt.Printf("Deleted campaign %s\n", args[0])
			return nil
		})
	},
}

var campaignExportCmd = &cobra.Command{
	Use:   "export ID FILE",
	Short: "Write a campaign to a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ExportCampaign", func(a *app.StarforgeApp) error {
			if err := a.ExportCampaign(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", args[1])
			return nil
		})
	},
}

var campaignImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add a campaign from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ImportCampaign", func(a *app.StarforgeApp) error {
			c, err := a.ImportCampaign(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Imported campaign %s (%s)\n", c.Name, c.ID)
			return nil
		})
	},
}

var campaignOpenDirCmd = &cobra.Command{
	Use:   "open-dir",
	Short: "Open the campaigns directory in the file browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "OpenCampaignsDir", func(a *app.StarforgeApp) error {
			return a.OpenCampaignsDir()
		})
	},
}

var campaignIdeasCmd = &cobra.Command{
	Use:   "ideas THEME",
	Short: "Suggest campaign names and pitches for a theme",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "CampaignIdeas", func(a *app.StarforgeApp) error {
			ideas, err := a.CampaignIdeas(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, idea := range ideas {
				fmt.Printf("%s\n  %s\n\n", idea.Name, idea.Description)
			}
			return nil
		})
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup FILE",
	Short: "Copy the whole blob store to a file",
	Long: "Copy the whole blob store to a file. A sqlite store is written as a\n" +
		"database snapshot; other blob stores as the stored campaigns document.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "BackupStorage", func(a *app.StarforgeApp) error {
			if err := a.BackupStorage(args[0]); err != nil {
				return err
			}
			fmt.Printf("Backed up to %s\n", args[0])
			return nil
		})
	},
}

// entity command
var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage the entities inside a campaign",
	Long: "Manage the entities inside a campaign.\n\nCollections: " +
		strings.Join(collectionNames(), ", "),
}

func collectionNames() []string {
	var names []string
	for _, n := range campaign.CollectionNames() {
		names = append(names, string(n))
	}
	return names
}

var entityListCmd = &cobra.Command{
	Use:   "list CAMPAIGN COLLECTION",
	Short: "Print one collection as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ListEntities", func(a *app.StarforgeApp) error {
			c, err := a.GetCampaign(args[0])
			if err != nil {
				return err
			}
			doc, err := campaign.Export(c)
			if err != nil {
				return err
			}
			var collections map[string]json.RawMessage
			if err := json.Unmarshal(doc, &collections); err != nil {
				return err
			}
			if _, err := campaign.KindByName(campaign.CollectionName(args[1])); err != nil {
				return err
			}
			return printJSON(collections[args[1]])
		})
	},
}

var entityAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN COLLECTION JSON",
	Short: "Add an entity (JSON object, or - to read stdin)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readJSONArg(args[2])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), "AddEntity", func(a *app.StarforgeApp) error {
			c, err := a.AddEntity(args[0], campaign.CollectionName(args[1]), data)
			if err != nil {
				return err
			}
			fmt.Printf("Added to %s of %s (%d entities)\n", args[1], c.Name, c.EntityCount())
			return nil
		})
	},
}

var entityUpdateCmd = &cobra.Command{
	Use:   "update CAMPAIGN COLLECTION ID JSON",
	Short: "Merge a JSON object over an entity (or - to read stdin)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := readJSONArg(args[3])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), "UpdateEntity", func(a *app.StarforgeApp) error {
			if _, err := a.UpdateEntity(args[0], campaign.CollectionName(args[1]), args[2], patch); err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", args[2])
			return nil
		})
	},
}

var entityRemoveCmd = &cobra.Command{
	Use:   "remove CAMPAIGN COLLECTION ID",
	Short: "Remove an entity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "RemoveEntity", func(a *app.StarforgeApp) error {
			if _, err := a.RemoveEntity(args[0], campaign.CollectionName(args[1]), args[2]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[2])
			return nil
		})
	},
}

// image command
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage campaign images",
}

var imageAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN FILE",
	Short: "Store an image file in a campaign",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
		}
		return withApp(cmd.Context(), "AddImage", func(a *app.StarforgeApp) error {
			img, err := a.AddImage(args[0], name, description, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added image %s (%s)\n", img.Name, img.ID)
			return nil
		})
	},
}

var imageSaveCmd = &cobra.Command{
	Use:   "save CAMPAIGN IMAGE [DIR]",
	Short: "Write a stored image to a directory",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 2 {
			dir = args[2]
		}
		return withApp(cmd.Context(), "SaveImage", func(a *app.StarforgeApp) error {
			path, err := a.SaveImage(args[0], args[1], dir)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
			return nil
		})
	},
}

// npc command
var npcCmd = &cobra.Command{
	Use:   "npc",
	Short: "Work with NPCs",
}

var npcDescribeCmd = &cobra.Command{
	Use:   "describe CAMPAIGN NPC",
	Short: "Generate a description for an NPC",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "DescribeNPC", func(a *app.StarforgeApp) error {
			npc, err := a.DescribeNPC(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n\n%s\n", npc.Name, npc.Description)
			return nil
		})
	},
}

// bestiary command
var bestiaryCmd = &cobra.Command{
	Use:   "bestiary",
	Short: "Work with a campaign's bestiary",
}

var bestiaryGenerateCmd = &cobra.Command{
	Use:   "generate CAMPAIGN KEYWORDS",
	Short: "Generate a creature from keywords",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "GenerateMonster", func(a *app.StarforgeApp) error {
			entry, err := a.GenerateMonster(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printJSON(entry)
		})
	},
}

var bestiaryImportCmd = &cobra.Command{
	Use:   "import CAMPAIGN URL",
	Short: "Import a monster from the reference API (e.g. /api/monsters/goblin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "ImportSRDMonster", func(a *app.StarforgeApp) error {
			entry, err := a.ImportSRDMonster(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Imported %s (%s)\n", entry.Name, entry.ID)
			return nil
		})
	},
}

var bestiaryTranslateCmd = &cobra.Command{
	Use:   "translate CAMPAIGN ENTRY",
	Short: "Translate an imported monster and keep the translation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "TranslateBestiaryEntry", func(a *app.StarforgeApp) error {
			entry, warning, err := a.TranslateBestiaryEntry(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printWarning(warning)
			return printJSON(entry)
		})
	},
}

// srd command
var srdCmd = &cobra.Command{
	Use:   "srd",
	Short: "Browse the reference API",
}

var srdListCmd = &cobra.Command{
	Use:       "list CATEGORY",
	Short:     "List a reference category with translated names",
	Args:      cobra.ExactArgs(1),
	ValidArgs: categoryNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := gateway.ParseCategory(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), "BrowseCategory", func(a *app.StarforgeApp) error {
			list, err := a.BrowseCategory(cmd.Context(), category)
			if err != nil {
				return err
			}
			printWarning(list.Warning)
			for _, item := range list.Items {
				fmt.Printf("%-40s  %s\n", item.Label, item.URL)
			}
			return nil
		})
	},
}

func categoryNames() []string {
	var names []string
	for _, c := range gateway.Categories() {
		names = append(names, string(c))
	}
	return names
}

var srdShowCmd = &cobra.Command{
	Use:   "show URL",
	Short: "Print a translated reference document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), "BrowseDocument", func(a *app.StarforgeApp) error {
			doc, err := a.BrowseDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printWarning(doc.Warning)
			return printJSON(doc.Data)
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// campaign subcommands
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignShowCmd)
	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCreateCmd.Flags().StringP("description", "d", "", "Campaign description")
	campaignCmd.AddCommand(campaignUpdateCmd)
	campaignUpdateCmd.Flags().String("name", "", "New name")
	campaignUpdateCmd.Flags().StringP("description", "d", "", "New description")
	campaignCmd.AddCommand(campaignDeleteCmd)
	campaignCmd.AddCommand(campaignExportCmd)
	campaignCmd.AddCommand(campaignImportCmd)
	campaignCmd.AddCommand(campaignOpenDirCmd)
	campaignCmd.AddCommand(campaignIdeasCmd)

	// entity subcommands
	entityCmd.AddCommand(entityListCmd)
	entityCmd.AddCommand(entityAddCmd)
	entityCmd.AddCommand(entityUpdateCmd)
	entityCmd.AddCommand(entityRemoveCmd)

	// image subcommands
	imageCmd.AddCommand(imageAddCmd)
	imageAddCmd.Flags().String("name", "", "Image name (defaults to the file name)")
	imageAddCmd.Flags().StringP("description", "d", "", "Image description")
	imageCmd.AddCommand(imageSaveCmd)

	// npc subcommands
	npcCmd.AddCommand(npcDescribeCmd)

	// bestiary subcommands
	bestiaryCmd.AddCommand(bestiaryGenerateCmd)
	bestiaryCmd.AddCommand(bestiaryImportCmd)
	bestiaryCmd.AddCommand(bestiaryTranslateCmd)

	// srd subcommands
	srdCmd.AddCommand(srdListCmd)
	srdCmd.AddCommand(srdShowCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(npcCmd)
	rootCmd.AddCommand(bestiaryCmd)
	rootCmd.AddCommand(srdCmd)
}
