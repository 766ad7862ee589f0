// =============================================================================
// AirShopping Offer Extractor - Main Entry Point
// =============================================================================
//
// This is the main entry point for the AirShopping Offer Extractor CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   offers show FILE     - Print the route cards of one AirShoppingRS file
//   offers process       - Process all XML files in the input directory
//   offers validate FILE - Check one file without writing anything
//   offers version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loading, extraction, session, reports, validation
//   - pkg/           : Shared file management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/airshopping-offers/cmd"
)

func main() {
	cmd.Execute()
}
