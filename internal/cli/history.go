package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Evils19/BioMasa/internal/store"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded analyses, newest first",
		RunE:  runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.List(historyLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no analyses recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tID\tTITLE\tTOTAL (g)\tCONFIDENCE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.2f\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.ID,
			r.Title,
			r.Components.DryTotal,
			r.Confidence)
	}
	return w.Flush()
}
