package config

import (
	"context"
	"os"

	"github.com/crucial707/hci-catalog/internal/client"
	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the catalog API.
// It can be overridden with the HCI_CATALOG_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("HCI_CATALOG_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// NewAPI returns a client for direct, uncached reads of the catalog API.
func NewAPI() *client.API {
	return client.NewAPI(APIURL(), nil)
}

// NewSession returns a client store for one CLI invocation. Notifications go
// to stderr so stdout carries only command output.
func NewSession() *client.Store {
	return client.NewStore(
		NewAPI(),
		&client.WriterNotifier{Out: os.Stderr, Err: os.Stderr},
		nil,
	)
}

// Context returns the command's context, or Background when the command was
// run without Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
