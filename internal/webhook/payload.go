package webhook

// Payload is the body of a messaging webhook delivery.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is one inbound message. Only the fields the conversation uses are decoded.
type Message struct {
	From        string            `json:"from" validate:"required"`
	ID          string            `json:"id" validate:"required"`
	Timestamp   string            `json:"timestamp"`
	Type        string            `json:"type" validate:"required"`
	Text        *TextBody         `json:"text,omitempty"`
	Interactive *InteractiveReply `json:"interactive,omitempty"`
	Button      *LegacyButton     `json:"button,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// InteractiveReply is the answer to a reply-button or list message.
type InteractiveReply struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// LegacyButton is the reply to a template quick-reply button.
type LegacyButton struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// Status is a delivery status callback for an outbound message.
type Status struct {
	ID          string        `json:"id" validate:"required"`
	Status      string        `json:"status" validate:"required"`
	Timestamp   string        `json:"timestamp"`
	RecipientID string        `json:"recipient_id"`
	Errors      []StatusError `json:"errors,omitempty"`
}

type StatusError struct {
	Code  int    `json:"code"`
	Title string `json:"title"`
}

func (r *InteractiveReply) reply() *Reply {
	if r == nil {
		return nil
	}
	if r.ButtonReply != nil {
		return r.ButtonReply
	}
	return r.ListReply
}
