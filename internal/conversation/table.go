package conversation

import (
	"context"

	"property_service_backend/internal/intake"
	"property_service_backend/internal/session"
	"property_service_backend/internal/whatsapp"
)

// Option IDs of the language and main menus.
const (
	optLanguageEnglish = "lang_en"
	optLanguageArabic  = "lang_ar"

	optMainMenu       = "main_menu"
	optMaintenance    = "maintenance_request"
	optComplaint      = "complaint"
	optRequestStatus  = "request_status"
	optPayment        = "payment_inquiry"
	optRenewal        = "contract_renewal"
	optSupport        = "customer_support"
	optChangeLanguage = "change_language"
)

var mainMenuOptionIDs = []string{
	optMaintenance, optComplaint, optRequestStatus, optPayment, optRenewal, optSupport, optChangeLanguage,
}

var maintenanceOptionIDs = []string{
	"maint_plumbing", "maint_electrical", "maint_air_conditioning", "maint_appliance", "maint_carpentry",
	"maint_painting", "maint_pest_control", "maint_cleaning", "maint_other",
}

var priorityOptionIDs = []string{"priority_low", "priority_medium", "priority_high", "priority_urgent"}

var complaintOptionIDs = []string{
	"complaint_noise", "complaint_neighbor", "complaint_cleanliness", "complaint_security",
	"complaint_parking", "complaint_management", "complaint_billing", "complaint_other",
}

// Typed aliases accepted in addition to option numbers, IDs and titles.
var optionAliases = map[string]string{
	"english": optLanguageEnglish,
	"en":      optLanguageEnglish,
	"arabic":  optLanguageArabic,
	"ar":      optLanguageArabic,
	"عربي":    optLanguageArabic,
	"عربى":    optLanguageArabic,
}

// Free-text intents that return to the main menu from any state.
var mainMenuIntents = map[string]struct{}{
	optMainMenu:        {},
	"menu":             {},
	"main menu":        {},
	"0":                {},
	"القائمة":          {},
	"القائمة الرئيسية": {},
	"رجوع":             {},
}

// flowDef describes a request flow: a category step, an optional priority
// step and a description step. Maintenance and complaints share it.
type flowDef struct {
	kind             intake.Kind
	categoryState    session.State
	priorityState    session.State
	descriptionState session.State
	confirmFmt       func(c catalog) string
}

var flows = map[session.Flow]flowDef{
	session.FlowMaintenance: {
		kind:             intake.KindMaintenance,
		categoryState:    session.StateAwaitingMaintenanceType,
		priorityState:    session.StateAwaitingPriority,
		descriptionState: session.StateAwaitingDescription,
		confirmFmt:       func(c catalog) string { return c.maintenanceConfirmFmt },
	},
	session.FlowComplaint: {
		kind:             intake.KindComplaint,
		categoryState:    session.StateAwaitingComplaintCategory,
		descriptionState: session.StateAwaitingComplaintDescription,
		confirmFmt:       func(c catalog) string { return c.complaintConfirmFmt },
	},
}

// afterCategory is the state that follows the category step of flow.
func (f flowDef) afterCategory() session.State {
	if f.priorityState != "" {
		return f.priorityState
	}
	return f.descriptionState
}

// prompt is what a state sends on entry and when its input is not understood.
type prompt struct {
	text string
	menu *whatsapp.Interactive
}

// handler consumes the input of a state and returns the next state.
type handler func(e *Engine, ctx context.Context, s *session.Session, in input) session.State

// stateRow is one row of the transition table. Menu states list option IDs;
// a selection that matches none of them re-sends the prompt. Free-text
// states supply onText instead.
type stateRow struct {
	prompt   func(c catalog) *prompt
	options  []string
	onSelect func(e *Engine, ctx context.Context, s *session.Session, optionID string) session.State
	onText   handler
	// requires guards entry: the draft must hold what the state needs.
	requires func(d session.Draft) bool
}

var table map[session.State]stateRow

func init() {
	table = map[session.State]stateRow{
		session.StateAwaitingLanguage: {
			prompt:   languagePrompt,
			options:  []string{optLanguageEnglish, optLanguageArabic},
			onSelect: (*Engine).chooseLanguage,
		},
		session.StateMainMenu: {
			prompt:   mainMenuPrompt,
			options:  mainMenuOptionIDs,
			onSelect: (*Engine).chooseMainMenu,
		},
		session.StateAwaitingMaintenanceType: {
			prompt:   menuPrompt(func(c catalog) string { return c.maintenanceTypeBody }, maintenanceOptionIDs),
			options:  maintenanceOptionIDs,
			onSelect: (*Engine).chooseCategory,
			requires: draftIn(session.FlowMaintenance),
		},
		session.StateAwaitingPriority: {
			prompt:   menuPrompt(func(c catalog) string { return c.priorityBody }, priorityOptionIDs),
			options:  priorityOptionIDs,
			onSelect: (*Engine).choosePriority,
			requires: draftWithCategory(session.FlowMaintenance),
		},
		session.StateAwaitingDescription: {
			prompt:   textPrompt(func(c catalog) string { return c.descriptionPrompt }),
			onText:   (*Engine).submitDescription,
			requires: draftWithCategory(session.FlowMaintenance),
		},
		session.StateAwaitingComplaintCategory: {
			prompt:   menuPrompt(func(c catalog) string { return c.complaintCategoryBody }, complaintOptionIDs),
			options:  complaintOptionIDs,
			onSelect: (*Engine).chooseCategory,
			requires: draftIn(session.FlowComplaint),
		},
		session.StateAwaitingComplaintDescription: {
			prompt:   textPrompt(func(c catalog) string { return c.complaintDescription }),
			onText:   (*Engine).submitDescription,
			requires: draftWithCategory(session.FlowComplaint),
		},
		session.StateCompleted: {
			onText: (*Engine).idle,
		},
	}
}

func draftIn(flow session.Flow) func(session.Draft) bool {
	return func(d session.Draft) bool { return d.Flow == flow }
}

func draftWithCategory(flow session.Flow) func(session.Draft) bool {
	return func(d session.Draft) bool { return d.Flow == flow && d.Category != "" }
}

func languagePrompt(catalog) *prompt {
	return &prompt{menu: &whatsapp.Interactive{
		Body:    languagePromptBody,
		Footer:  languagePromptFooter,
		Options: []whatsapp.Option{
			{ID: optLanguageEnglish, Title: "English"},
			{ID: optLanguageArabic, Title: "العربية"},
		},
	}}
}

func mainMenuPrompt(c catalog) *prompt {
	menu := buildMenu(c, c.mainMenuBody, mainMenuOptionIDs)
	menu.Header = c.mainMenuHeader
	return &prompt{menu: &menu}
}

func menuPrompt(body func(catalog) string, ids []string) func(catalog) *prompt {
	return func(c catalog) *prompt {
		menu := buildMenu(c, body(c), ids)
		return &prompt{menu: &menu}
	}
}

func textPrompt(body func(catalog) string) func(catalog) *prompt {
	return func(c catalog) *prompt {
		return &prompt{text: body(c)}
	}
}

func buildMenu(c catalog, body string, ids []string) whatsapp.Interactive {
	opts := make([]whatsapp.Option, 0, len(ids))
	for _, id := range ids {
		opts = append(opts, whatsapp.Option{
			ID:          id,
			Title:       c.options[id],
			Description: c.optionDescriptions[id],
		})
	}
	return whatsapp.Interactive{
		Body:        body,
		Footer:      c.menuFooter,
		ButtonLabel: c.menuButton,
		Options:     opts,
	}
}
