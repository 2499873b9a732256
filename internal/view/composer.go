package view

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const DefaultMaxLength = 100

var (
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrMessageTooLong = errors.New("message is too long")
)

// Composer is the input buffer behind the message form.
type Composer struct {
	text string
	max  int
	err  error
}

func NewComposer(max int) *Composer {
	if max <= 0 {
		max = DefaultMaxLength
	}
	return &Composer{max: max}
}

func (c *Composer) SetText(s string) {
	c.text = s
	c.err = nil
}

func (c *Composer) Text() string { return c.text }

func (c *Composer) Max() int { return c.max }

// Len counts characters, not bytes.
func (c *Composer) Len() int { return utf8.RuneCountInString(c.text) }

// Remaining goes negative once the buffer is over the limit.
func (c *Composer) Remaining() int { return c.max - c.Len() }

// Validate checks the buffer and remembers the failure for display.
func (c *Composer) Validate() error {
	switch {
	case strings.TrimSpace(c.text) == "":
		c.err = ErrEmptyMessage
	case c.Len() > c.max:
		c.err = ErrMessageTooLong
	default:
		c.err = nil
	}
	return c.err
}

// Err is the last validation failure shown next to the form.
func (c *Composer) Err() error { return c.err }

func (c *Composer) Clear() {
	c.text = ""
	c.err = nil
}
