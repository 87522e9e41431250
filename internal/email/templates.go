package email

import "fmt"

// KYC decision emails. Plain text on purpose; the web dashboard is where
// subjects see the full detail.

func KycApprovedMessage(to, name string) *Message {
	return &Message{
		To:      to,
		Subject: "Your account has been verified",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour identity verification has been approved. "+
				"You now have full access to the platform.\n", name),
	}
}

func KycRejectedMessage(to, name, reason string) *Message {
	return &Message{
		To:      to,
		Subject: "Your verification was rejected",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour identity verification was rejected.\n\nReason: %s\n\n"+
				"You can correct your submission and try again from your dashboard.\n",
			name, reason),
	}
}

func KycSuspendedMessage(to, name, reason string) *Message {
	return &Message{
		To:      to,
		Subject: "Your account has been suspended",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account has been suspended.\n\nReason: %s\n\n"+
				"Contact support if you believe this is a mistake.\n",
			name, reason),
	}
}
