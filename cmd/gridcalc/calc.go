package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridcalc/gridcalc"
)

var calcCmd = &cobra.Command{
	Use:   "calc <workbook.yaml>",
	Short: "Calculate a workbook and print the results",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalc,
}

func init() {
	calcCmd.Flags().Bool("iterative", false, "relax circular references iteratively")
	calcCmd.Flags().Int("max-iterations", 100, "iteration cap for the relaxation solver")
	calcCmd.Flags().Float64("max-change", 0.001, "convergence threshold for the relaxation solver")

	_ = viper.BindPFlag("iterative", calcCmd.Flags().Lookup("iterative"))
	_ = viper.BindPFlag("max_iterations", calcCmd.Flags().Lookup("max-iterations"))
	_ = viper.BindPFlag("max_change", calcCmd.Flags().Lookup("max-change"))

	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	wb, err := buildWorkbook(doc)
	if err != nil {
		return err
	}

	opts := gridcalc.CalcOptions{
		Iterative:     viper.GetBool("iterative"),
		MaxIterations: viper.GetInt("max_iterations"),
		MaxChange:     viper.GetFloat64("max_change"),
	}
	stats := wb.CalculateWithOptions(opts)

	fmt.Fprint(cmd.OutOrStdout(), renderResults(wb, stats))
	return nil
}
