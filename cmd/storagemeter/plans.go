package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show the pricing plan catalog",
	Long: `Show the pricing plans storage units can be billed under.

Each plan carries a storage rate (applied to the month's peak usage),
an update rate (applied to the month's update volume), and an optional
free cap that waives a fee when its metered volume stays at or under
the cap.

Examples:
  storagemeter plans
  storagemeter plans --config /etc/storagemeter/config.yaml`,
	RunE: runPlans,
}

func init() {
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	catalog, err := cfg.PlanCatalog()
	if err != nil {
		return err
	}

	if len(catalog) == 0 {
		fmt.Println("No plans configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTORAGE/MB\tUPDATE/MB\tFREE CAP")
	fmt.Fprintln(w, "--\t----\t----------\t---------\t--------")

	for _, p := range catalog {
		freeCap := "none"
		if p.HasFreeCap() {
			freeCap = fmt.Sprintf("%d MB", p.FreeMonthlyFeeCapMB)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.StoragePricePerMB.String(), p.UpdatePricePerMB.String(), freeCap)
	}

	w.Flush()

	if len(cfg.Units) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UNIT\tPLAN")
		fmt.Fprintln(w, "----\t----")
		for _, u := range cfg.Units {
			fmt.Fprintf(w, "%s\t%s\n", u.ID, u.Plan)
		}
		w.Flush()
	}

	return nil
}
