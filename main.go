// @title           SiteGuard API
// @version         1.0
// @description     ThinkLab SiteGuard backend API - workspaces, inventory, architecture plans, safety reports and AI insights.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "siteguard/docs"
)

var rootCmd = &cobra.Command{
	Use:   "siteguard",
	Short: "SiteGuard construction site management API",
	Long: `SiteGuard serves the construction workspace API: projects, inventory,
architecture plans, safety reports and AI generated insights.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, maintenanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
