// =============================================================================
// AirShopping Offer Extractor - Show Command
// =============================================================================
//
// This file defines the 'show' command, which uploads one file into a
// session and prints its route cards.
//
// COMMAND USAGE:
//   offers show FILE [--flat]
//
// OUTPUT:
//   One card per route, or "No offers to display. Upload an XML file to
//   begin." when nothing was extracted. A file not ending in ".xml" prints
//   "Please upload a valid XML file." and exits non-zero.
//
// =============================================================================

package cmd

import (
	"github.com/ginjaninja78/airshopping-offers/internal/display"
	"github.com/ginjaninja78/airshopping-offers/internal/loader"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/internal/session"
	"github.com/spf13/cobra"
)

// showFlat selects the flat variant regardless of the configuration.
var showFlat bool

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print the route cards of an AirShoppingRS file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		options := mainConfig.ExtractorOptions(logger)
		if showFlat {
			options.Variant = offer.VariantFlat
		}

		s := session.New(loader.New(mainConfig.LoaderOptions()), options, logger)

		result, err := s.UploadPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return display.Render(cmd.OutOrStdout(), result, mainConfig.DisplayOptions())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(
		&showFlat,
		"flat",
		false,
		"List every offer individually instead of grouping by route",
	)
}
