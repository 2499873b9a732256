package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"guestbook/internal/client"
	"guestbook/internal/view"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server    string
	Token     string
	Format    string // "json" | "text"
	MaxLength int
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the guestbook CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "guestbook",
		Short: "Read and sign the guestbook from a terminal",
		Long: `Read and sign a guestbook server from a terminal.

Reading is public. Posting needs a session token, which a signed-in browser
can fetch from /auth/token.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("GUESTBOOK_SERVER", "http://localhost:8080"), "guestbook server URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("GUESTBOOK_TOKEN"), "session token")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.MaxLength, "max-length", view.DefaultMaxLength, "longest message the composer accepts")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))

	return cmd
}

func (o *RootOptions) client() *client.Client {
	return client.New(o.Server, o.Token, &http.Client{Timeout: 10 * time.Second})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
