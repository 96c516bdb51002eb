package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"property_service_backend/internal/clients"
	"property_service_backend/internal/intake"
	"property_service_backend/internal/notification"
	"property_service_backend/internal/session"
	"property_service_backend/platform/apperr"
)

const openRequestsLimit = 5

func (e *Engine) chooseLanguage(_ context.Context, s *session.Session, id string) session.State {
	if id == optLanguageArabic {
		s.Language = session.LanguageArabic
	} else {
		s.Language = session.LanguageEnglish
	}
	return session.StateMainMenu
}

func (e *Engine) chooseMainMenu(ctx context.Context, s *session.Session, id string) session.State {
	switch id {
	case optMaintenance:
		s.Draft = session.Draft{Flow: session.FlowMaintenance}
		return flows[session.FlowMaintenance].categoryState
	case optComplaint:
		s.Draft = session.Draft{Flow: session.FlowComplaint}
		return flows[session.FlowComplaint].categoryState
	case optRequestStatus:
		e.requestStatus(ctx, s)
	case optPayment:
		e.paymentInquiry(ctx, s)
	case optRenewal:
		e.contractRenewal(ctx, s)
	case optSupport:
		e.customerSupport(ctx, s)
	case optChangeLanguage:
		return session.StateAwaitingLanguage
	default:
		return session.StateMainMenu
	}
	return session.StateCompleted
}

func (e *Engine) chooseCategory(_ context.Context, s *session.Session, id string) session.State {
	flow := flows[s.Draft.Flow]
	s.Draft.Category = id
	return flow.afterCategory()
}

func (e *Engine) choosePriority(_ context.Context, s *session.Session, id string) session.State {
	s.Draft.Priority = id
	return flows[s.Draft.Flow].descriptionState
}

// submitDescription creates the request collected by the flow. The
// conversation always ends at COMPLETED once a description was given.
func (e *Engine) submitDescription(ctx context.Context, s *session.Session, in input) session.State {
	if in.text == "" {
		return s.State
	}

	c := textsFor(s.Language)
	flow := flows[s.Draft.Flow]

	res, ok := e.resolveSender(ctx, s)
	if !ok {
		return session.StateCompleted
	}

	result, err := e.intake.Create(ctx, intake.CreateInput{
		Kind:          flow.kind,
		Sender:        s.SenderKey,
		Resolution:    res,
		CategoryToken: s.Draft.Category,
		PriorityToken: s.Draft.Priority,
		Description:   in.text,
	})
	if apperr.Is(err, apperr.KindValidation) {
		e.log.WithContext(ctx).Info("description rejected, asking again", "error", err)
		return s.State
	}
	if err != nil {
		e.log.WithContext(ctx).Error("intake failed", "kind", string(flow.kind), "error", err)
		e.sendText(ctx, s.SenderKey, c.retryLater)
		return session.StateCompleted
	}

	e.sendText(ctx, s.SenderKey, fmt.Sprintf(flow.confirmFmt(c), result.DisplayID))
	e.enqueue(ctx, result.Jobs)
	return session.StateCompleted
}

// idle handles input at rest. A tapped main-menu button from an earlier
// menu is honoured; anything else gets the hint.
func (e *Engine) idle(ctx context.Context, s *session.Session, in input) session.State {
	if in.selectionID != "" {
		if id, ok := matchOption(mainMenuOptionIDs, textsFor(s.Language), in); ok {
			return e.chooseMainMenu(ctx, s, id)
		}
	}
	e.sendText(ctx, s.SenderKey, textsFor(s.Language).idleHint)
	return session.StateCompleted
}

func (e *Engine) requestStatus(ctx context.Context, s *session.Session) {
	c := textsFor(s.Language)
	res, ok := e.resolveSender(ctx, s)
	if !ok {
		return
	}

	requests, err := e.intake.OpenRequests(ctx, res, openRequestsLimit)
	if err != nil {
		e.log.WithContext(ctx).Error("open requests lookup failed", "error", err)
		e.sendText(ctx, s.SenderKey, c.retryLater)
		return
	}
	if len(requests) == 0 {
		e.sendText(ctx, s.SenderKey, c.noOpenRequests)
		return
	}

	var b strings.Builder
	b.WriteString(c.openRequestsHeader)
	for _, req := range requests {
		prefix := "maint_"
		if req.Kind == intake.KindComplaint {
			prefix = "complaint_"
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, c.openRequestLineFmt,
			req.DisplayID,
			optionTitle(c, prefix+req.Category, req.Category),
			optionTitle(c, "priority_"+req.Priority, req.Priority),
			req.Status,
		)
	}
	e.sendText(ctx, s.SenderKey, b.String())
}

func (e *Engine) paymentInquiry(ctx context.Context, s *session.Session) {
	c := textsFor(s.Language)
	res, ok := e.resolveSender(ctx, s)
	if !ok {
		return
	}

	summary, err := e.intake.PaymentSummary(ctx, res)
	if errors.Is(err, intake.ErrNoContract) {
		e.sendText(ctx, s.SenderKey, c.noContract)
		return
	}
	if err != nil {
		e.log.WithContext(ctx).Error("payment summary failed", "error", err)
		e.sendText(ctx, s.SenderKey, c.retryLater)
		return
	}

	msg := fmt.Sprintf(c.paymentFmt,
		FormatMoney(summary.RentCents),
		summary.StartDate.Format("2006-01-02"),
		summary.EndDate.Format("2006-01-02"),
		summary.DaysRemaining,
	)
	if unit := unitLabel(summary.PropertyName, summary.UnitNumber); unit != "" {
		msg = fmt.Sprintf(c.paymentUnitFmt, unit) + "\n" + msg
	}
	e.sendText(ctx, s.SenderKey, msg)
}

func (e *Engine) contractRenewal(ctx context.Context, s *session.Session) {
	c := textsFor(s.Language)
	res, ok := e.resolveSender(ctx, s)
	if !ok {
		return
	}

	result, err := e.intake.RequestRenewal(ctx, s.SenderKey, res)
	if err != nil {
		e.log.WithContext(ctx).Error("renewal request failed", "error", err)
		e.sendText(ctx, s.SenderKey, c.retryLater)
		return
	}

	e.sendText(ctx, s.SenderKey, fmt.Sprintf(c.renewalConfirmFmt, result.DisplayID))
	e.enqueue(ctx, result.Jobs)
}

func (e *Engine) customerSupport(ctx context.Context, s *session.Session) {
	c := textsFor(s.Language)
	var officePhone, hours string
	if e.office != nil {
		officePhone, hours = e.office.GetOfficePhone(), e.office.GetOfficeHours()
	}
	if officePhone == "" {
		e.sendText(ctx, s.SenderKey, fmt.Sprintf(c.supportNoPhone, hours))
		return
	}
	e.sendText(ctx, s.SenderKey, fmt.Sprintf(c.supportFmt, officePhone, hours))
}

// resolveSender resolves the session's sender. When that fails it tells the
// tenant what to do next and reports false.
func (e *Engine) resolveSender(ctx context.Context, s *session.Session) (clients.Resolution, bool) {
	c := textsFor(s.Language)
	res, err := e.resolver.Resolve(ctx, s.SenderKey)
	if err != nil {
		e.log.WithContext(ctx).Error("sender resolution failed", "error", err)
		e.sendText(ctx, s.SenderKey, c.retryLater)
		return clients.Resolution{}, false
	}
	if !res.Found {
		e.sendText(ctx, s.SenderKey, c.contactOffice)
		return clients.Resolution{}, false
	}
	return res, true
}

func (e *Engine) enqueue(ctx context.Context, jobs []notification.Job) {
	if e.outbox == nil || len(jobs) == 0 {
		return
	}
	if err := e.outbox.Enqueue(ctx, jobs...); err != nil {
		e.log.WithContext(ctx).Warn("staff notification not queued", "jobs", len(jobs), "error", err)
	}
}

func optionTitle(c catalog, id, fallback string) string {
	if title, ok := c.options[id]; ok {
		return title
	}
	return fallback
}

func unitLabel(property, unit string) string {
	switch {
	case property != "" && unit != "":
		return property + " " + unit
	case property != "":
		return property
	default:
		return unit
	}
}

// FormatMoney renders cents as a SAR amount with thousands separators, e.g. "SAR 4,500.00".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("SAR %s%s.%02d", sign, b.String(), cents%100)
}
