package main

import (
	"io"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bikereg/internal/app"
	mcptools "github.com/felixgeelhaar/bikereg/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server for AI agent integration.

The MCP server lets AI agents walk a user through the bike registration.

Available tools:
  - bikereg_steps          List the registration steps and their fields
  - bikereg_verify_serial  Verify a serial number
  - bikereg_validate       Check registration fields without submitting
  - bikereg_register       Verify and submit a registration (requires confirm)
  - bikereg_status         Report the bikereg version

Examples:
  bikereg mcp                     # Start stdio MCP server
  bikereg mcp --http :8080        # Start HTTP MCP server
  bikereg mcp --config path.yaml  # Use specific config file`,
	RunE: runMCP,
}

var mcpHTTP string

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "Start HTTP server on address (e.g., :8080)")
}

// newMCPServer creates the MCP server with every bikereg tool registered.
func newMCPServer(cmd *cobra.Command) (*mcp.Server, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	// Stdout carries the protocol; logs go to stderr.
	registrar := app.FromSettings(settings, io.Discard, cmd.ErrOrStderr())

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "bikereg",
		Version: version,
	})

	versionInfo := mcptools.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	}
	mcptools.RegisterAll(srv, registrar, versionInfo)
	return srv, nil
}

func runMCP(cmd *cobra.Command, _ []string) error {
	srv, err := newMCPServer(cmd)
	if err != nil {
		return err
	}

	if mcpHTTP != "" {
		return mcp.ServeHTTP(cmd.Context(), srv, mcpHTTP)
	}
	return mcp.ServeStdio(cmd.Context(), srv)
}
