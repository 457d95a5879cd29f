package cli

import (
	"errors"
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/cmd"
	"github.com/axellelanca/shortlinks/internal/database"
	"github.com/axellelanca/shortlinks/internal/repository"
)

var recentFlag int

var StatsCmd = &cobra.Command{
	Use:   "stats [alias]",
	Short: "Shows click statistics for a short URL",
	Long:  `Prints the total clicks, the per-region breakdown and the most recent clicks of an alias.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	StatsCmd.Flags().IntVar(&recentFlag, "recent", 5, "number of recent clicks to show")
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(c *cobra.Command, args []string) error {
	alias := args[0]

	db, err := cmd.OpenDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	link, err := repository.NewLinkRepository(db).GetLinkByAlias(c.Context(), alias)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("alias %q not found", alias)
		}
		return err
	}

	clicks := repository.NewClickRepository(db)
	logged, err := clicks.CountClicksByLinkID(c.Context(), link.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Statistics for %s\n", link.CanonicalURL)
	fmt.Printf("Original URL: %s\n", link.OriginalURL)
	fmt.Printf("Total clicks: %d (%d in click log)\n", link.TotalClicks, logged)
	fmt.Printf("Created at:   %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(link.Regions) > 0 {
		regions := table.New("Region", "Clicks").WithWriter(c.OutOrStdout())
		for _, region := range link.Regions {
			regions.AddRow(region.Name, region.Clicks)
		}
		regions.Print()
	}

	if recentFlag <= 0 {
		return nil
	}
	recent, err := clicks.ListRecentClicks(c.Context(), link.ID, recentFlag)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return nil
	}
	fmt.Println("Recent clicks:")
	tbl := table.New("Time", "Region", "Referer", "User agent").WithWriter(c.OutOrStdout())
	for _, click := range recent {
		tbl.AddRow(click.Timestamp.Format("2006-01-02 15:04:05"), click.Region, click.Referer, click.UserAgent)
	}
	tbl.Print()
	return nil
}
