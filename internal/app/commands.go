package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/caselink/caselink"
)

// NewRootCommand returns the caselink command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "caselink",
		Short: "Link support cases to organizations and contacts and label them",
		Long: `caselink fills missing organization and contact ids of a support case
sheet from reference tables and assigns Type, Sub-Type and Category labels.

Names are matched exactly, then fuzzily, then semantically when an embedding
provider is configured. Contacts back-fill their organization.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(configCmd())
	return root
}

func runCmd() *cobra.Command {
	var (
		opts    Options
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Link and label a case sheet",
		Example: `  caselink run --cases cases.xlsx --organizations accounts.csv --people contacts.csv
  caselink run --cases cases.csv --organizations a.csv --organizations b.csv --output out/linked.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := NewLogger(verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			res, err := Run(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			PrintSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.CasesPath, "cases", "", "case sheet (csv, tsv or xlsx)")
	f.StringArrayVar(&opts.Organizations, "organizations", nil, "organization reference table, repeatable")
	f.StringArrayVar(&opts.People, "people", nil, "person reference table, repeatable")
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default caselink.yaml)")
	f.StringVar(&opts.RulesPath, "rules", "", "rule override file (yaml or json)")
	f.StringVarP(&opts.OutputPath, "output", "o", "", "output file (default <cases>_linked.<ext>)")
	f.StringVar(&opts.CleanedPath, "cleaned", "", "cleaned copy of the output, - to skip")
	f.StringVar(&opts.CSVPath, "csv", "", "csv copy of the linked sheet for workbook outputs, - to skip")
	f.StringVar(&opts.Diagnostics, "diagnostics", "", "near-miss report (default ambiguous_matches.csv next to the output)")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("cases")
	return cmd
}

func probeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether the configured embedding provider is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := caselink.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := NewLogger(false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			source := caselink.NewSimilaritySource(cmd.Context(), cfg.Embedder, logger)
			defer source.Close()
			out := cmd.OutOrStdout()
			if source.Available() {
				fmt.Fprintf(out, "%s provider %s\n", okColor.Sprint("available"), cfg.Embedder.Provider)
				return nil
			}
			fmt.Fprintf(out, "%s provider %s, fuzzy matching only\n", warnColor.Sprint("unavailable"), cfg.Embedder.Provider)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default caselink.yaml)")
	return cmd
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage label rule tables",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in rule tables as an editable override file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "caselink-rules.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := caselink.WriteRulesFile(path, caselink.DefaultRuleSet(), force); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okColor.Sprint("wrote"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "caselink.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config %s: %w (use --force to replace it)", path, os.ErrExist)
				}
			}
			if err := caselink.SaveConfig(path, caselink.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okColor.Sprint("wrote"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
