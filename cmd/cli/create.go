package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlinks/cmd"
	"github.com/axellelanca/shortlinks/internal/database"
	"github.com/axellelanca/shortlinks/internal/services"
)

var (
	ownerFlag   string
	longURLFlag string
	aliasFlag   string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a short URL for an existing user.",
	Long: `Shortens the given URL on behalf of a user and prints the alias.

Example:
  shortlinks create --owner=<user-id> --url="https://www.google.com/search?q=go+lang" --alias=golang`,
	RunE: func(c *cobra.Command, args []string) error {
		db, err := cmd.OpenDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		links := newLinkService(db)
		link, err := links.Create(c.Context(), ownerFlag, services.CreateLinkInput{URL: longURLFlag, Alias: aliasFlag})
		if err != nil {
			return err
		}

		fmt.Println("Short URL created:")
		fmt.Printf("Alias: %s\n", link.Alias)
		fmt.Printf("URL:   %s\n", link.CanonicalURL)
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&ownerFlag, "owner", "", "ID of the user owning the link")
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&aliasFlag, "alias", "", "Custom alias (generated when empty)")
	_ = CreateCmd.MarkFlagRequired("owner")
	_ = CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
