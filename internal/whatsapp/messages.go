package whatsapp

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Provider limits for interactive messages.
const (
	MaxButtons        = 3
	MaxListRows       = 10
	maxButtonTitle    = 20
	maxRowTitle       = 24
	maxRowDescription = 72
	maxListButton     = 20
)

// Option is one selectable entry of an interactive menu.
type Option struct {
	ID          string
	Title       string
	Description string
}

// Interactive is a menu rendered as reply buttons (up to three options
// without descriptions) or as a single-section list otherwise.
type Interactive struct {
	Header      string
	Body        string
	Footer      string
	ButtonLabel string
	Options     []Option
}

// PlainText renders the menu as a numbered text message. It is the
// constrained fallback when the interactive send is rejected.
func (m Interactive) PlainText() string {
	var b strings.Builder
	if m.Header != "" {
		b.WriteString(m.Header)
		b.WriteString("\n\n")
	}
	b.WriteString(m.Body)
	b.WriteString("\n")
	for i, opt := range m.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt.Title)
	}
	if m.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(m.Footer)
	}
	return b.String()
}

func (m Interactive) useButtons() bool {
	if len(m.Options) > MaxButtons {
		return false
	}
	for _, opt := range m.Options {
		if opt.Description != "" || utf8.RuneCountInString(opt.Title) > maxButtonTitle {
			return false
		}
	}
	return true
}

// ---- wire payloads ----

type sendRequest struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type interactivePayload struct {
	Type   string         `json:"type"`
	Header *headerPayload `json:"header,omitempty"`
	Body   bodyPayload    `json:"body"`
	Footer *bodyPayload   `json:"footer,omitempty"`
	Action actionPayload  `json:"action"`
}

type headerPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bodyPayload struct {
	Text string `json:"text"`
}

type actionPayload struct {
	Button   string           `json:"button,omitempty"`
	Buttons  []buttonPayload  `json:"buttons,omitempty"`
	Sections []sectionPayload `json:"sections,omitempty"`
}

type buttonPayload struct {
	Type  string       `json:"type"`
	Reply replyPayload `json:"reply"`
}

type replyPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type sectionPayload struct {
	Title string       `json:"title,omitempty"`
	Rows  []rowPayload `json:"rows"`
}

type rowPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func buildInteractive(m Interactive) (*interactivePayload, error) {
	if len(m.Options) == 0 {
		return nil, fmt.Errorf("interactive message needs at least one option")
	}
	if len(m.Options) > MaxListRows {
		return nil, fmt.Errorf("interactive message has %d options, limit is %d", len(m.Options), MaxListRows)
	}

	p := &interactivePayload{Body: bodyPayload{Text: m.Body}}
	if m.Header != "" {
		p.Header = &headerPayload{Type: "text", Text: m.Header}
	}
	if m.Footer != "" {
		p.Footer = &bodyPayload{Text: m.Footer}
	}

	if m.useButtons() {
		p.Type = "button"
		for _, opt := range m.Options {
			p.Action.Buttons = append(p.Action.Buttons, buttonPayload{
				Type:  "reply",
				Reply: replyPayload{ID: opt.ID, Title: opt.Title},
			})
		}
		return p, nil
	}

	p.Type = "list"
	label := m.ButtonLabel
	if label == "" {
		label = "Options"
	}
	p.Action.Button = truncate(label, maxListButton)
	rows := make([]rowPayload, 0, len(m.Options))
	for _, opt := range m.Options {
		rows = append(rows, rowPayload{
			ID:          opt.ID,
			Title:       truncate(opt.Title, maxRowTitle),
			Description: truncate(opt.Description, maxRowDescription),
		})
	}
	p.Action.Sections = []sectionPayload{{Rows: rows}}
	return p, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
