package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	addressingpkg "github.com/evbridge/evbridge/internal/runtime/addressing"
	loggingpkg "github.com/evbridge/evbridge/internal/runtime/logging"
	registrypkg "github.com/evbridge/evbridge/internal/runtime/registry"
)

func newTestSlogLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(newTestSlogLogger())
}

type published struct {
	topic string
	msg   *message.Message
}

type testPublisher struct {
	mu        sync.Mutex
	published []published
	err       error
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, msg := range messages {
		p.published = append(p.published, published{topic: topic, msg: msg})
	}
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.published))
	copy(out, p.published)
	return out
}

type testSubscriber struct{}

func (s *testSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (s *testSubscriber) Close() error { return nil }

func newTestCodec(t *testing.T, cfg addressingpkg.Config, nativeHeaders bool) (*Codec, *registrypkg.TypeRegistry) {
	t.Helper()

	reg := registrypkg.New()
	if err := reg.Register("UserLoggedIn",
		registrypkg.WithTopic("io.cloudevents.demo.user.loggedIn"),
		registrypkg.WithEventType("io.cloudevents.demo.user.loggedIn"),
	); err != nil {
		t.Fatalf("failed to register type: %v", err)
	}

	resolver := addressingpkg.NewResolver(reg, cfg)
	return NewCodec(reg, resolver, nativeHeaders), reg
}
