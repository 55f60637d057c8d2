package domain

// NewSubscriber is a validated signup request.
type NewSubscriber struct {
	Email SubscriberEmail
	Name  SubscriberName
}

// ParseNewSubscriber validates the raw form fields. The name is checked
// first so its error wins when both are invalid.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Email: e, Name: n}, nil
}
