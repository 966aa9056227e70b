package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/fabriclog"
)

var (
	saveFrom string
	saveRec  fabriclog.FabricRecord
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Reconcile a record and append it to the inventory",
	Long: `Append one row to the inventory. Fields start from the candidate given
with --from (as printed by extract) and are overridden by the field flags.
The unit price is always recomputed from length and total price.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		var candidate fabriclog.FabricRecord
		if saveFrom != "" {
			if candidate, err = readCandidate(cmd.InOrStdin(), saveFrom); err != nil {
				return err
			}
		}

		var e fabriclog.Edits
		flags := cmd.Flags()
		if flags.Changed("name") {
			e.Name = &saveRec.Name
		}
		if flags.Changed("material") {
			e.Material = &saveRec.Material
		}
		if flags.Changed("width") {
			e.Width = &saveRec.Width
		}
		if flags.Changed("length") {
			e.LengthM = &saveRec.LengthM
		}
		if flags.Changed("total-price") {
			e.TotalPrice = &saveRec.TotalPrice
		}
		if flags.Changed("color") {
			e.Color = &saveRec.Color
		}
		if flags.Changed("shop") {
			e.Shop = &saveRec.Shop
		}

		sink, err := a.settings.NewSink(ctx, a.log)
		if err != nil {
			return err
		}
		final := fabriclog.Reconcile(candidate, e)
		if err := sink.Append(ctx, final.Row()); err != nil {
			return &fabriclog.SaveFailure{Err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %q: %sm, %d yen, %d yen/m\n",
			final.Name, fabriclog.FormatLength(final.LengthM), final.TotalPrice, final.UnitPricePerM)
		return nil
	},
}

func init() {
	f := saveCmd.Flags()
	f.StringVar(&saveFrom, "from", "", "candidate JSON or YAML file, or - for stdin")
	f.StringVar(&saveRec.Name, "name", "", "product name")
	f.StringVar(&saveRec.Material, "material", "", "material")
	f.StringVar(&saveRec.Width, "width", "", "width as written, e.g. 110cm")
	f.Float64Var(&saveRec.LengthM, "length", 0, "length in meters")
	f.Int64Var(&saveRec.TotalPrice, "total-price", 0, "total price paid")
	f.StringVar(&saveRec.Color, "color", "", "color")
	f.StringVar(&saveRec.Shop, "shop", "", "shop")
	rootCmd.AddCommand(saveCmd)
}
