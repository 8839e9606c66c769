package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"photopipe/internal/models"
)

type fakeReader struct {
	msgs chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m, ok := <-r.msgs:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type recordingProcessor struct {
	mu   sync.Mutex
	reqs []models.ProcessRequest
}

func (p *recordingProcessor) Process(_ context.Context, req models.ProcessRequest) (models.ProcessResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	if req.Path == "missing.jpg" {
		return models.ProcessResult{Success: false, Message: "fetch failed"}, models.ErrFetch
	}
	return models.ProcessResult{Success: true, Message: "ok", PhotoID: req.PhotoID}, nil
}

func event(t *testing.T, req models.ProcessRequest) kafka.Message {
	t.Helper()
	v, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: v}
}

func TestConsumerProcessesAndPublishes(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 4)}
	writer := &fakeWriter{}
	proc := &recordingProcessor{}
	c := newConsumer(reader, proc, &Publisher{writer: writer}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	reader.msgs <- event(t, models.ProcessRequest{PhotoID: "p1", Bucket: "b", Path: "a.jpg"})
	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	reader.msgs <- event(t, models.ProcessRequest{PhotoID: "p2", Bucket: "b", Path: "missing.jpg"})
	close(reader.msgs)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(proc.reqs) != 2 {
		t.Fatalf("expected 2 processed events, got %d", len(proc.reqs))
	}
	if len(writer.msgs) != 2 {
		t.Fatalf("expected 2 published results, got %d", len(writer.msgs))
	}
	if string(writer.msgs[1].Key) != "p2" {
		t.Fatalf("failed result should be keyed by photo id, got %q", writer.msgs[1].Key)
	}
	var res models.ProcessResult
	if err := json.Unmarshal(writer.msgs[1].Value, &res); err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure result to be published as success=false")
	}
}

func TestConsumerStopsOnCancel(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message)}
	c := newConsumer(reader, &recordingProcessor{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

type shutdownDuringRun struct {
	stop      context.CancelFunc
	runCtxErr error
}

func (p *shutdownDuringRun) Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResult, error) {
	p.stop()
	p.runCtxErr = ctx.Err()
	return models.ProcessResult{Success: true, PhotoID: req.PhotoID}, nil
}

type ctxRecordingWriter struct {
	fakeWriter
	ctxErr error
}

func (w *ctxRecordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.ctxErr = ctx.Err()
	return w.fakeWriter.WriteMessages(ctx, msgs...)
}

func TestConsumerFinishesRunAfterShutdownSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	writer := &ctxRecordingWriter{}
	proc := &shutdownDuringRun{stop: cancel}
	c := newConsumer(reader, proc, &Publisher{writer: writer}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	reader.msgs <- event(t, models.ProcessRequest{PhotoID: "p1", Bucket: "b", Path: "a.jpg"})

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if proc.runCtxErr != nil {
		t.Fatalf("in-flight run saw cancelled context: %v", proc.runCtxErr)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("expected result of the in-flight run to be published, got %d", len(writer.msgs))
	}
	if writer.ctxErr != nil {
		t.Fatalf("publish saw cancelled context: %v", writer.ctxErr)
	}
}
