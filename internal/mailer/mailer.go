package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Message carries everything needed for one send, including the sender's own
// SMTP credentials.
type Message struct {
	To        string
	Subject   string
	HTML      string
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
	Secure    bool
}

type Sender interface {
	Send(msg Message) error
}

type SMTPSender struct{}

func (SMTPSender) Send(msg Message) error {
	from := msg.FromEmail
	if from == "" {
		from = msg.User
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(msg.Host, msg.Port, msg.User, msg.Pass)
	d.SSL = msg.Secure
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Outcome receives "sent", "failed" or "dropped" for every dispatch.
type Outcome func(result string)

// Queue sends mail on background workers. Dispatch never blocks; a full
// queue drops the message.
type Queue struct {
	jobs    chan Message
	sender  Sender
	log     logrus.FieldLogger
	outcome Outcome
	wg      sync.WaitGroup
}

func NewQueue(sender Sender, size int, log logrus.FieldLogger, outcome Outcome) *Queue {
	if size <= 0 {
		size = 1
	}
	if outcome == nil {
		outcome = func(string) {}
	}
	return &Queue{
		jobs:    make(chan Message, size),
		sender:  sender,
		log:     log,
		outcome: outcome,
	}
}

func (q *Queue) Dispatch(msg Message) bool {
	select {
	case q.jobs <- msg:
		return true
	default:
		q.log.WithField("to", msg.To).Warn("mail queue full, dropping message")
		q.outcome("dropped")
		return false
	}
}

// Start launches workers that run until ctx is cancelled. Wait blocks until
// they have exited.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.work(ctx)
		}()
	}
}

func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q.jobs:
			if err := q.sender.Send(msg); err != nil {
				q.log.WithError(err).WithField("to", msg.To).Error("mail dispatch failed")
				q.outcome("failed")
				continue
			}
			q.outcome("sent")
		}
	}
}
