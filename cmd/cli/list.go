package cli

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlinks/cmd"
	"github.com/axellelanca/shortlinks/internal/database"
)

var listOwnerFlag string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the short URLs of a user",
	RunE: func(c *cobra.Command, args []string) error {
		db, err := cmd.OpenDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		links, err := newLinkService(db).ListByOwner(c.Context(), listOwnerFlag)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			fmt.Println("No short URLs.")
			return nil
		}
		tbl := table.New("Alias", "Clicks", "Created", "URL").WithWriter(c.OutOrStdout())
		for _, link := range links {
			tbl.AddRow(link.Alias, link.TotalClicks, link.CreatedAt.Format("2006-01-02"), link.OriginalURL)
		}
		tbl.Print()
		return nil
	},
}

func init() {
	ListCmd.Flags().StringVar(&listOwnerFlag, "owner", "", "ID of the user")
	_ = ListCmd.MarkFlagRequired("owner")
	cmd.RootCmd.AddCommand(ListCmd)
}
