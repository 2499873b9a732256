package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"guestbook/internal/client"
	"guestbook/internal/model"
	"guestbook/internal/view"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "Show every entry, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadView(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), rootOpts, v, table)
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "render entries as a table")

	return cmd
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "post <message>",
		Short:        "Leave a message",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadView(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			v.Composer().SetText(strings.Join(args, " "))
			if err := v.Submit(cmd.Context()); err != nil {
				return fmt.Errorf("post: %w", err)
			}
			return output(cmd.OutOrStdout(), rootOpts, v, false)
		},
	}

	return cmd
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "whoami",
		Short:        "Show who the token belongs to",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				if s == nil {
					s = &model.Session{}
				}
				return json.NewEncoder(w).Encode(s)
			}
			if s == nil {
				_, err := fmt.Fprintln(w, "Not signed in")
				return err
			}
			_, err = fmt.Fprintf(w, "%s via %s, session expires %s\n",
				s.User.Name, s.Provider, view.FormatTimestamp(s.ExpiresAt))
			return err
		},
	}

	return cmd
}

func session(ctx context.Context, opts *RootOptions) (*model.Session, error) {
	if opts.Token == "" {
		return nil, nil
	}
	return opts.client().Session(ctx)
}

func loadView(ctx context.Context, opts *RootOptions) (*view.View, error) {
	s, err := session(ctx, opts)
	if err != nil {
		return nil, err
	}

	v := view.New(opts.client(), opts.MaxLength)
	v.SetSession(s)
	if err := v.Load(ctx); err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return v, nil
}

func output(w io.Writer, opts *RootOptions, v *view.View, table bool) error {
	entries, _ := v.Entries()
	switch {
	case opts.Format == "json":
		if entries == nil {
			entries = []model.Entry{}
		}
		return json.NewEncoder(w).Encode(entries)
	case table:
		return renderTable(w, entries)
	default:
		return view.Render(w, v)
	}
}

func renderTable(w io.Writer, entries []model.Entry) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Message", "Created"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, e := range entries {
		table.Append([]string{e.Name, e.Message, view.FormatTimestamp(e.CreatedAt)})
	}
	table.Render()
	return nil
}

var _ view.Caller = (*client.Client)(nil)
