package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hamrosuraksha/reliefchain/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	registryURL string
	cfgFile     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relief",
	Short: "Relief record registry CLI",
	Long: `relief is the command-line interface for the relief record registry.

It allows you to register relief disbursements, anchor their fingerprints
on the Solana ledger, and verify records against their on-chain anchors.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.relief")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if registryURL == "" {
			registryURL = viper.GetString("registry_url")
		}
		if registryURL == "" {
			registryURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.relief/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry", "", "registry base URL (default http://localhost:8080)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(anchorCmd)
	rootCmd.AddCommand(anchorAllCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── status ───────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger reachability and anchoring wallet balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		st, err := c.GetStatus(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "NETWORK\t%s\n", st.Network)
		fmt.Fprintf(w, "RPC\t%s\n", st.RPCURL)
		fmt.Fprintf(w, "WALLET\t%s\n", st.WalletAddress)
		if st.Reachable {
			fmt.Fprintf(w, "REACHABLE\tyes\n")
			fmt.Fprintf(w, "BALANCE\t%.4f SOL\n", st.BalanceSOL)
		} else {
			fmt.Fprintf(w, "REACHABLE\tno\n")
			fmt.Fprintf(w, "ERROR\t%s\n", st.Error)
		}
		return w.Flush()
	},
}

// ── stats ────────────────────────────────────────────────────────────────────

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show anchoring coverage over the record store",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		st, err := c.GetStats(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "TOTAL RECORDS\t%d\n", st.TotalRecords)
		fmt.Fprintf(w, "ANCHORED\t%d\n", st.Anchored)
		fmt.Fprintf(w, "PENDING\t%d\n", st.Pending)
		fmt.Fprintf(w, "COVERAGE\t%.1f%%\n", st.CoveragePercent)
		return w.Flush()
	},
}

// ── anchor ───────────────────────────────────────────────────────────────────

var anchorCmd = &cobra.Command{
	Use:   "anchor <record-id>",
	Short: "Anchor a record's fingerprint on the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		receipt, err := c.AnchorRecord(context.Background(), args[0])
		if err != nil {
			return err
		}

		if receipt.AlreadyAnchored {
			fmt.Printf("already anchored: %s\n", receipt.TxSignature)
		} else {
			fmt.Printf("anchored: %s\n", receipt.TxSignature)
		}
		if receipt.ExplorerURL != "" {
			fmt.Printf("explorer: %s\n", receipt.ExplorerURL)
		}
		if receipt.PersistenceWarning != "" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", receipt.PersistenceWarning)
		}
		return nil
	},
}

var anchorAllCmd = &cobra.Command{
	Use:   "anchor-all",
	Short: "Anchor every unanchored record",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		summary, err := c.AnchorAll(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("total: %d  anchored: %d  failed: %d\n",
			summary.Total, summary.Anchored, summary.Failed)
		if len(summary.Results) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RECORD\tSTATUS\tTX")
			for _, r := range summary.Results {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.RecordID, r.Status, r.TxSignature)
			}
			w.Flush()
		}
		return nil
	},
}

// ── verify ───────────────────────────────────────────────────────────────────

var verifyOffline bool

var verifyCmd = &cobra.Command{
	Use:   "verify <record-id>",
	Short: "Verify a record against its on-chain anchor",
	Long: `Verify re-derives a record's fingerprint and checks it against the
ledger. The verdict is tri-state: verified, tampered, or indeterminate when
the ledger cannot be reached.

Use --offline for a pure hash comparison without a ledger round-trip.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		ctx := context.Background()

		if verifyOffline {
			check, err := c.VerifyRecordOffline(ctx, args[0])
			if err != nil {
				return err
			}
			if check.Match {
				fmt.Println("match: record hash is intact")
			} else {
				fmt.Println("MISMATCH: record does not match its stored hash")
				fmt.Printf("  stored:  %s\n", check.StoredHash)
				fmt.Printf("  current: %s\n", check.CurrentHash)
			}
			return nil
		}

		result, err := c.VerifyRecord(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("verdict: %s (%s)\n", result.Verdict, result.Mode)
		if result.Diagnostic != "" {
			fmt.Printf("note: %s\n", result.Diagnostic)
		}
		if result.ExplorerURL != "" {
			fmt.Printf("explorer: %s\n", result.ExplorerURL)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyOffline, "offline", false, "Compare against the stored hash only, no ledger query")
}

// ── records ──────────────────────────────────────────────────────────────────

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage relief disbursement records",
}

var addReq client.CreateRecordRequest

var recordsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new relief disbursement record",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		result, err := c.CreateRecord(context.Background(), addReq)
		if err != nil {
			return err
		}

		fmt.Printf("created: %s\n", result.Record.ID)
		if result.AnchorQueued {
			fmt.Println("anchoring queued in background")
		} else {
			fmt.Println("anchoring not queued; run 'relief anchor-all' later")
		}
		return nil
	},
}

var (
	listProvince string
	listDistrict string
	listDisaster string
	listLimit    int
	listJSON     bool
)

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List relief records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		records, err := c.ListRecords(context.Background(), client.ListFilter{
			Province:     listProvince,
			District:     listDistrict,
			DisasterType: listDisaster,
			Limit:        listLimit,
		})
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDISTRICT\tAMOUNT\tANCHORED")
		for _, r := range records {
			anchored := "no"
			if r.TxSignature != "" {
				anchored = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.FullName, r.District, r.ReliefAmount, anchored)
		}
		return w.Flush()
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show a single relief record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(registryURL)
		rec, err := c.GetRecord(context.Background(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	recordsAddCmd.Flags().StringVar(&addReq.FullName, "name", "", "Beneficiary full name")
	recordsAddCmd.Flags().StringVar(&addReq.CitizenshipNo, "citizenship", "", "Beneficiary citizenship number")
	recordsAddCmd.Flags().Int64Var(&addReq.ReliefAmount, "amount", 0, "Relief amount in rupees")
	recordsAddCmd.Flags().StringVar(&addReq.Province, "province", "", "Province")
	recordsAddCmd.Flags().StringVar(&addReq.District, "district", "", "District")
	recordsAddCmd.Flags().StringVar(&addReq.DisasterType, "disaster", "", "Disaster type")
	recordsAddCmd.Flags().StringVar(&addReq.OfficerName, "officer", "", "Disbursing officer name")
	recordsAddCmd.Flags().StringVar(&addReq.OfficerID, "officer-id", "", "Disbursing officer ID")
	for _, f := range []string{"name", "citizenship", "amount", "province", "district", "disaster", "officer", "officer-id"} {
		_ = recordsAddCmd.MarkFlagRequired(f)
	}

	recordsListCmd.Flags().StringVar(&listProvince, "province", "", "Filter by province")
	recordsListCmd.Flags().StringVar(&listDistrict, "district", "", "Filter by district")
	recordsListCmd.Flags().StringVar(&listDisaster, "disaster", "", "Filter by disaster type")
	recordsListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum records to return")
	recordsListCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON instead of a table")

	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relief CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("relief", version)
	},
}
