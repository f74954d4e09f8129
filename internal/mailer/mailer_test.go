package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
	done chan struct{}
}

func (s *recordingSender) Send(msg Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

type outcomes struct {
	mu      sync.Mutex
	results []string
}

func (o *outcomes) record(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *outcomes) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.results...)
}

func TestQueueDeliversMessages(t *testing.T) {
	log, _ := test.NewNullLogger()
	sender := &recordingSender{done: make(chan struct{}, 1)}
	results := &outcomes{}
	q := NewQueue(sender, 4, log, results.record)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, 1)

	require.True(t, q.Dispatch(Message{To: "ana@example.com", Subject: "Debt due"}))
	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("message was not sent")
	}
	cancel()
	q.Wait()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Equal(t, []string{"sent"}, results.snapshot())
}

func TestQueueFailuresAreOnlyLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	sender := &recordingSender{err: errors.New("smtp down"), done: make(chan struct{}, 1)}
	results := &outcomes{}
	q := NewQueue(sender, 1, log, results.record)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, 1)
	require.True(t, q.Dispatch(Message{To: "ana@example.com"}))
	<-sender.done
	cancel()
	q.Wait()

	assert.Equal(t, []string{"failed"}, results.snapshot())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "mail dispatch failed", hook.LastEntry().Message)
}

func TestDispatchDropsWhenFull(t *testing.T) {
	log, _ := test.NewNullLogger()
	results := &outcomes{}
	q := NewQueue(&recordingSender{}, 1, log, results.record)

	assert.True(t, q.Dispatch(Message{To: "a@example.com"}))
	assert.False(t, q.Dispatch(Message{To: "b@example.com"}))
	assert.Equal(t, []string{"dropped"}, results.snapshot())
}
