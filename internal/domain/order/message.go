package order

// Message is a plain-text mail ready for delivery.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

func (s *Summary) Message(from, to string) Message {
	return Message{
		From:    from,
		To:      []string{to},
		Subject: s.Subject,
		Body:    s.Text(),
	}
}
