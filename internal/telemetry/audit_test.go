package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/mocks"
)

func TestEmitBuildsEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.neighborhub", "neighborhub", "test")
	emitter.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	var got AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.neighborhub", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { got = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), AuditRecord{Action: "message.send", Text: "sent", RequestID: "req-1", UserID: "u1", Resource: "m1"})

	pub.AssertExpectations(t)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u1", *got.UserID)
	assert.Equal(t, "INFO", got.Payload.Level)
	assert.Equal(t, "message.send", got.Payload.Action)
	assert.Equal(t, "2024-03-01T12:00:00Z", got.OccurredAt)
	assert.Equal(t, "neighborhub", got.Service)
}

func TestEmitWithoutUserOmitsID(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.neighborhub", "neighborhub", "test")

	pub.On("Publish", mock.Anything, "audit.neighborhub", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.UserID == nil
	})).Return(assert.AnError).Once()

	emitter.Emit(context.Background(), AuditRecord{Action: "auth.register"})
	pub.AssertExpectations(t)
}

func TestEmitNilEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), AuditRecord{Action: "noop"})
	})
}
