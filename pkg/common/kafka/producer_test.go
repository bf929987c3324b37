package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/common/models"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestNewEventStampsIDAndTime(t *testing.T) {
	a := NewEvent(models.EventApprovalChanged, "reviews-service", map[string]interface{}{"ext_id": "7453"})
	b := NewEvent(models.EventApprovalChanged, "reviews-service", nil)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() || a.Timestamp.Location().String() != "UTC" {
		t.Fatalf("expected UTC timestamp, got %v", a.Timestamp)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded models.Event
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "review.approval_changed" || decoded.Data["ext_id"] != "7453" {
		t.Fatalf("unexpected wire event %+v", decoded)
	}
}

func TestPublishEventKeysByEventID(t *testing.T) {
	writer := &fakeWriter{}
	producer := &Producer{writer: writer, topic: "reviews.events"}

	err := producer.PublishEvent(context.Background(), models.EventReviewsIngested, "reviews-service", map[string]interface{}{"count": 8})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.written))
	}

	msg := writer.written[0]
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(msg.Key) != event.ID || event.Type != models.EventReviewsIngested {
		t.Fatalf("unexpected message key %q for event %+v", msg.Key, event)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != models.EventReviewsIngested {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
}

func TestPublishEventFailureLogsReviewContext(t *testing.T) {
	hook := test.NewLocal(logger.Log)
	defer hook.Reset()

	writer := &fakeWriter{err: errors.New("leader not available")}
	producer := &Producer{writer: writer, topic: "reviews.events"}

	err := producer.PublishEvent(context.Background(), models.EventApprovalChanged, "reviews-service", map[string]interface{}{"ext_id": "7453", "approved": true})
	if !errors.Is(err, writer.err) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log entry, got %+v", entry)
	}
	for key, want := range map[string]interface{}{
		"topic":      "reviews.events",
		"event_type": models.EventApprovalChanged,
		"ext_id":     "7453",
		"source":     "reviews-service",
	} {
		if entry.Data[key] != want {
			t.Errorf("log field %s = %v, want %v", key, entry.Data[key], want)
		}
	}
}
