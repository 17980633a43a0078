package kafka_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkain "fieldops/internal/adapters/in/kafka"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessageReader struct{ mock.Mock }

func (m *MockMessageReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockMessageReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockMessageReader) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockAssignmentStarter struct{ mock.Mock }

func (m *MockAssignmentStarter) StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(order.Status), args.Error(1)
}

func message(offset int64, payload string) kafka.Message {
	return kafka.Message{Offset: offset, Value: []byte(payload)}
}

// stopAfter makes the next fetch cancel ctx and fail the way kafka-go does.
func stopAfter(reader *MockMessageReader, cancel context.CancelFunc) {
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled).Once()
}

func TestOrderCreatedConsumer_Run_StartsAssignmentAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	orderID := kernel.NewUUID()
	msg := message(7, `{"orderId":"`+orderID.String()+`"}`)

	reader := new(MockMessageReader)
	starter := new(MockAssignmentStarter)
	mock.InOrder(
		reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once(),
		starter.On("StartAssignment", mock.Anything, orderID).Return(order.Offered, nil).Once(),
		reader.On("CommitMessages", mock.Anything, []kafka.Message{msg}).Return(nil).Once(),
	)
	stopAfter(reader, cancel)
	reader.On("Close").Return(nil).Once()

	consumer := kafkain.NewOrderCreatedConsumer(reader, starter, slog.Default())
	require.NoError(t, consumer.Run(ctx))

	reader.AssertExpectations(t)
	starter.AssertExpectations(t)
}

func TestOrderCreatedConsumer_Run_CommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	bad := message(1, `not json`)
	missing := message(2, `{}`)

	reader := new(MockMessageReader)
	starter := new(MockAssignmentStarter)
	mock.InOrder(
		reader.On("FetchMessage", mock.Anything).Return(bad, nil).Once(),
		reader.On("CommitMessages", mock.Anything, []kafka.Message{bad}).Return(nil).Once(),
		reader.On("FetchMessage", mock.Anything).Return(missing, nil).Once(),
		reader.On("CommitMessages", mock.Anything, []kafka.Message{missing}).Return(nil).Once(),
	)
	stopAfter(reader, cancel)
	reader.On("Close").Return(nil).Once()

	consumer := kafkain.NewOrderCreatedConsumer(reader, starter, slog.Default())
	require.NoError(t, consumer.Run(ctx))

	starter.AssertNotCalled(t, "StartAssignment", mock.Anything, mock.Anything)
	reader.AssertExpectations(t)
}

func TestOrderCreatedConsumer_Run_CommitsWhenStartFails(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	unknown, failing := kernel.NewUUID(), kernel.NewUUID()
	first := message(1, `{"orderId":"`+unknown.String()+`"}`)
	second := message(2, `{"orderId":"`+failing.String()+`"}`)

	reader := new(MockMessageReader)
	starter := new(MockAssignmentStarter)
	mock.InOrder(
		reader.On("FetchMessage", mock.Anything).Return(first, nil).Once(),
		starter.On("StartAssignment", mock.Anything, unknown).
			Return(order.Unknown, errs.NewObjectNotFoundError("orderId", unknown)).Once(),
		reader.On("CommitMessages", mock.Anything, []kafka.Message{first}).Return(nil).Once(),
		reader.On("FetchMessage", mock.Anything).Return(second, nil).Once(),
		starter.On("StartAssignment", mock.Anything, failing).
			Return(order.Unknown, errors.New("db down")).Once(),
		reader.On("CommitMessages", mock.Anything, []kafka.Message{second}).Return(nil).Once(),
	)
	stopAfter(reader, cancel)
	reader.On("Close").Return(nil).Once()

	consumer := kafkain.NewOrderCreatedConsumer(reader, starter, slog.Default())
	require.NoError(t, consumer.Run(ctx))

	reader.AssertExpectations(t)
	starter.AssertExpectations(t)
}

func TestOrderCreatedConsumer_Run_RetriesFetchErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reader := new(MockMessageReader)
	starter := new(MockAssignmentStarter)
	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("broker unreachable")).Once()
	stopAfter(reader, cancel)
	reader.On("Close").Return(nil).Once()

	consumer := kafkain.NewOrderCreatedConsumer(reader, starter, slog.Default())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	reader.AssertExpectations(t)
}
