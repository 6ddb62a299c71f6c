package mocks

// MockMessageQueue is a function-field double for queue.MessageQueue. It
// records published messages so tests can assert on the action channel
// without standing up NATS or RabbitMQ.
type MockMessageQueue struct {
	Published []PublishedMessage

	PublishFunc   func(subject string, data []byte) error
	SubscribeFunc func(subject string, handler func(data []byte) error) error
	CloseFunc     func() error
}

type PublishedMessage struct {
	Subject string
	Data    []byte
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	m.Published = append(m.Published, PublishedMessage{Subject: subject, Data: data})
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func(data []byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	return nil
}

func (m *MockMessageQueue) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
