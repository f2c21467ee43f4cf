package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/skim"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

func runSync(cmd *cobra.Command, args []string) error {
	ctx, done, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer done()

	var sum exchanger.Summary
	if len(args) == 0 {
		sum = a.Syncer.SyncAll(ctx)
	} else {
		t, ok := pool.ParseExchanger(args[0])
		if !ok {
			return fmt.Errorf("unknown exchanger %q", args[0])
		}
		if sum, err = a.Syncer.SyncOne(ctx, t); err != nil {
			return err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, sum)
	}
	writeSummary(os.Stdout, sum)
	if len(sum.Failures()) > 0 || sum.Error != "" {
		return fmt.Errorf("%d exchangers failed", len(sum.Failures()))
	}
	return nil
}

func writeSummary(w io.Writer, sum exchanger.Summary) {
	if sum.Error != "" {
		fmt.Fprintf(w, "run %s failed: %s\n", sum.RunID, sum.Error)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXCHANGER\tRETURNED\tNEW\tUPDATED\tSKIPPED\tDROPPED\tDURATION\tERROR")
	for _, r := range sum.Results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Exchanger, r.Returned, r.Inserted, r.Updated, r.Skipped, r.Dropped, r.Duration.Round(1e6), r.Error)
	}
	_ = tw.Flush()
}

func runPools(cmd *cobra.Command, _ []string) error {
	ctx, done, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer done()

	enabledOnly, _ := cmd.Flags().GetBool("enabled")
	pools, err := a.Store.ListPools(ctx, enabledOnly)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("exchanger"); name != "" {
		t, ok := pool.ParseExchanger(name)
		if !ok {
			return fmt.Errorf("unknown exchanger %q", name)
		}
		pools = filterExchanger(pools, t)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, pools)
	}
	writePools(os.Stdout, pools)
	return nil
}

func filterExchanger(pools []store.Pool, t pool.ExchangerType) []store.Pool {
	out := pools[:0]
	for _, p := range pools {
		if p.Exchanger == t {
			out = append(out, p)
		}
	}
	return out
}

func writePools(w io.Writer, pools []store.Pool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tEXCHANGER\tCHAIN\tTVL\tAPR\tENABLED\tUPDATED")
	for _, p := range pools {
		apr := "-"
		if p.APR != nil {
			apr = p.APR.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			p.Address, p.Name, p.Exchanger, p.Chain, p.TVL.StringFixed(2), apr, p.Enabled,
			p.UpdateDate.UTC().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func runSkim(cmd *cobra.Command, _ []string) error {
	ctx, done, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer done()

	report, err := a.Skim.Check(ctx)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, report)
	}
	writeSkim(os.Stdout, report)
	return nil
}

func writeSkim(w io.Writer, report skim.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAIN\tCHECKED\tLISTED\tMISSING\tERROR")
	for _, c := range report.Chains {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", c.Chain, c.Checked, c.Listed, len(c.Missing), c.Error)
	}
	_ = tw.Flush()
	for _, p := range report.Missing() {
		fmt.Fprintf(w, "missing: %s %s %s %s\n", p.Chain, p.Exchanger, p.Name, p.Address)
	}
}
