// Package envectormcpcmder
package envectormcpcmder

import (
	servecmder "github.com/envectorhq/envector-mcp/cmd/envectormcp/serve"
	"github.com/spf13/cobra"
)

const envectorLongDesc string = `enVector MCP exposes vector database operations as MCP tools.

Run the server using:
  envectormcp serve          Run the MCP server against a remote engine
  envectormcp serve --eval   Run against a local in-process engine`

const envectorShortDesc string = "enVector MCP - vector database tools over MCP"

func NewEnvectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envectormcp",
		Short: envectorShortDesc,
		Long:  envectorLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())

	return cmd
}
