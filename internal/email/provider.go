package email

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

// Provider delivers emails. Delivery is always best effort for the callers
// in this codebase; a failed send never fails the triggering operation.
type Provider interface {
	Send(msg *Message) error
}
