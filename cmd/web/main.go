// cmd/web/main.go
//
// ecomm – HTTP entry point.
//
// Commands
// --------
//
//   - serve – load settings, start the logger, resolve a vault: SECRET_KEY,
//     open the database, build the middleware chain and router, and serve
//     until SIGINT or SIGTERM.
//   - check – load settings, print deploy warnings, and validate the chain,
//     templates, and password validators without opening a listener.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/yanizio/ecomm/components/account"
	_ "github.com/yanizio/ecomm/components/home"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd wires every sub-command.  Built fresh per call so tests can
// execute it in isolation.
func newRootCmd() *cobra.Command {
	var baseDir string

	root := &cobra.Command{
		Use:   "ecomm",
		Short: "ecomm storefront web server",
		Long: `ecomm serves the storefront.

Settings come from compiled defaults, <base>/conf/settings.yaml, <base>/.env,
and the environment (SECRET_KEY, DEBUG, DATABASE_URL, and ECOMM_* keys with
"__" as the section separator).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseDir, "base-dir", "", "application base directory (default: discovered)")

	root.AddCommand(newServeCmd(&baseDir), newCheckCmd(&baseDir))
	return root
}
