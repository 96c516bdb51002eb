// Package conversation drives the guided tenant conversation: one session per
// sender, advanced by a declarative transition table.
package conversation

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"property_service_backend/internal/clients"
	"property_service_backend/internal/intake"
	"property_service_backend/internal/notification"
	"property_service_backend/internal/session"
	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/config"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/metrics"
)

// Messenger sends replies to the tenant.
type Messenger interface {
	SendText(ctx context.Context, to string, body string) (string, error)
	SendInteractive(ctx context.Context, to string, msg whatsapp.Interactive) (string, error)
}

// Resolver maps a sender to an account.
type Resolver interface {
	Resolve(ctx context.Context, rawPhone string) (clients.Resolution, error)
}

// IntakeService creates requests and answers inquiries.
type IntakeService interface {
	Create(ctx context.Context, in intake.CreateInput) (intake.Result, error)
	RequestRenewal(ctx context.Context, sender string, res clients.Resolution) (intake.Result, error)
	OpenRequests(ctx context.Context, res clients.Resolution, limit int) ([]intake.Request, error)
	PaymentSummary(ctx context.Context, res clients.Resolution) (intake.PaymentSummary, error)
}

// SessionStore is the per-sender state the engine advances.
type SessionStore interface {
	Upsert(key string, mutate func(*session.Session)) session.Session
}

// Deps are the collaborators of the engine.
type Deps struct {
	Sessions  SessionStore
	Messenger Messenger
	Resolver  Resolver
	Intake    IntakeService
	Outbox    notification.Outbox
	Office    config.OfficeConfig
	Logger    *logger.Logger
}

type Engine struct {
	sessions  SessionStore
	messenger Messenger
	resolver  Resolver
	intake    IntakeService
	outbox    notification.Outbox
	office    config.OfficeConfig
	log       *logger.Logger
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		sessions:  deps.Sessions,
		messenger: deps.Messenger,
		resolver:  deps.Resolver,
		intake:    deps.Intake,
		outbox:    deps.Outbox,
		office:    deps.Office,
		log:       deps.Logger,
	}
}

// Inbound is one message from a tenant: free text, or a structured menu
// selection carrying the option ID.
type Inbound struct {
	Sender         string
	MessageID      string
	Text           string
	SelectionID    string
	SelectionTitle string
}

type input struct {
	text        string
	selectionID string
	title       string
}

// HandleText processes a free-text message.
func (e *Engine) HandleText(ctx context.Context, sender, text string) session.Session {
	return e.Handle(ctx, Inbound{Sender: sender, Text: text})
}

// HandleSelection processes a button or list reply.
func (e *Engine) HandleSelection(ctx context.Context, sender, optionID, title string) session.Session {
	return e.Handle(ctx, Inbound{Sender: sender, SelectionID: optionID, SelectionTitle: title})
}

// Handle advances the sender's session by one message and returns the
// resulting session. Sends happen while the sender's session is locked, so
// replies to one sender never interleave.
func (e *Engine) Handle(ctx context.Context, msg Inbound) session.Session {
	ctx = context.WithValue(ctx, logger.SenderKey, msg.Sender)
	if msg.MessageID != "" {
		ctx = context.WithValue(ctx, logger.MessageIDKey, msg.MessageID)
	}

	in := input{
		text:        strings.TrimSpace(msg.Text),
		selectionID: strings.TrimSpace(msg.SelectionID),
		title:       strings.TrimSpace(msg.SelectionTitle),
	}

	return e.sessions.Upsert(msg.Sender, func(s *session.Session) {
		from := s.State
		trigger := e.step(ctx, s, in)
		if s.Created || s.State != from {
			e.log.ConversationTransition(s.SenderKey, string(from), string(s.State), trigger)
			metrics.Get().TransitionsTotal.WithLabelValues(string(from), string(s.State)).Inc()
		}
	})
}

func (e *Engine) step(ctx context.Context, s *session.Session, in input) string {
	if s.Created {
		// the first message of a new session is never interpreted
		e.enter(ctx, s, session.StateAwaitingLanguage)
		return "new_session"
	}

	if isMainMenuIntent(in) {
		e.enter(ctx, s, session.StateMainMenu)
		return "main_menu"
	}

	row := table[s.State]
	switch {
	case len(row.options) > 0:
		id, ok := matchOption(row.options, textsFor(s.Language), in)
		if !ok {
			e.reprompt(ctx, s)
			return "unknown_selection"
		}
		e.enter(ctx, s, row.onSelect(e, ctx, s, id))
		return id
	case row.onText != nil:
		e.enter(ctx, s, row.onText(e, ctx, s, in))
		return "text"
	default:
		e.enter(ctx, s, session.StateMainMenu)
		return "reset"
	}
}

// enter moves s to state, sending the state's prompt. Entering the main menu
// clears the draft; a state whose draft requirements are not met falls back
// to the main menu.
func (e *Engine) enter(ctx context.Context, s *session.Session, to session.State) {
	row, ok := table[to]
	if !ok {
		to, row = session.StateMainMenu, table[session.StateMainMenu]
	}
	if row.requires != nil && !row.requires(s.Draft) {
		e.log.WithContext(ctx).Warn("draft incomplete for state, returning to main menu", "state", string(to), "flow", string(s.Draft.Flow))
		to, row = session.StateMainMenu, table[session.StateMainMenu]
	}

	if to == session.StateMainMenu || to == session.StateAwaitingLanguage || to == session.StateCompleted {
		s.Reset(to)
	} else {
		s.State = to
	}

	if row.prompt != nil {
		e.sendPrompt(ctx, s.SenderKey, row.prompt(textsFor(s.Language)))
	}
}

func (e *Engine) reprompt(ctx context.Context, s *session.Session) {
	if row := table[s.State]; row.prompt != nil {
		e.sendPrompt(ctx, s.SenderKey, row.prompt(textsFor(s.Language)))
	}
}

func (e *Engine) sendPrompt(ctx context.Context, to string, p *prompt) {
	if p.menu != nil {
		e.sendMenu(ctx, to, *p.menu)
		return
	}
	e.sendText(ctx, to, p.text)
}

// sendMenu falls back to the numbered plain-text rendering when the
// interactive send fails. The caller's transition stands either way.
func (e *Engine) sendMenu(ctx context.Context, to string, menu whatsapp.Interactive) {
	_, err := e.messenger.SendInteractive(ctx, to, menu)
	if err == nil {
		return
	}
	metrics.Get().SendFailuresTotal.WithLabelValues("interactive").Inc()
	e.log.WithContext(ctx).Warn("interactive send failed, falling back to text", "error", err)
	e.sendText(ctx, to, menu.PlainText())
}

func (e *Engine) sendText(ctx context.Context, to, body string) {
	if body == "" {
		return
	}
	if _, err := e.messenger.SendText(ctx, to, body); err != nil {
		metrics.Get().SendFailuresTotal.WithLabelValues("text").Inc()
		e.log.WithContext(ctx).Error("reply not delivered", "error", err)
	}
}

func isMainMenuIntent(in input) bool {
	if in.selectionID == optMainMenu {
		return true
	}
	if in.selectionID != "" {
		return false
	}
	_, ok := mainMenuIntents[normalizeReply(in.text)]
	return ok
}

// matchOption finds the option the tenant picked: by selection ID, by its
// number in the menu, by ID or title typed as text, or by a known alias.
func matchOption(ids []string, c catalog, in input) (string, bool) {
	if in.selectionID != "" {
		for _, id := range ids {
			if id == in.selectionID {
				return id, true
			}
		}
		return "", false
	}

	reply := normalizeReply(in.text)
	if reply == "" {
		return "", false
	}

	if n, err := strconv.Atoi(reply); err == nil {
		if n >= 1 && n <= len(ids) {
			return ids[n-1], true
		}
		return "", false
	}

	for _, id := range ids {
		if reply == id || reply == strings.ToLower(c.options[id]) {
			return id, true
		}
	}
	if id, ok := optionAliases[reply]; ok {
		for _, candidate := range ids {
			if candidate == id {
				return id, true
			}
		}
	}
	return "", false
}

// normalizeReply lower-cases, trims and maps Arabic-Indic digits to ASCII.
func normalizeReply(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}
