package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"guestbook/internal/model"
)

// FormatTimestamp trims a creation time to seconds and drops the zone suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

// Render writes the view as plain text.
func Render(w io.Writer, v *View) error {
	var b strings.Builder

	if v.Status() == model.StatusLoading {
		b.WriteString("Loading...\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("Guestbook\n\n")
	if id, ok := v.Identity(); ok {
		fmt.Fprintf(&b, "Hi %s\n", id.Name)
		if id.Image != "" {
			fmt.Fprintf(&b, "avatar: %s\n", id.Image)
		}
		c := v.Composer()
		fmt.Fprintf(&b, "%d characters left\n", c.Remaining())
		if err := c.Err(); err != nil {
			fmt.Fprintf(&b, "! %s\n", err)
		}
	} else {
		b.WriteString("Sign in to leave a message.\n")
	}
	b.WriteString("\n")

	entries, ready := v.Entries()
	if !ready {
		b.WriteString("Fetching messages ...\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\n  - %s · %s\n", e.Message, e.Name, FormatTimestamp(e.CreatedAt))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
