package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"household/internal/mailer"
	"household/internal/metrics"
	"household/internal/models"
	"household/internal/store"
)

var ErrNoRecipient = errors.New("notification has neither user nor family")

type Store interface {
	Create(ctx context.Context, tx store.Execer, n models.Notification) error
}

type Users interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	ListByFamily(ctx context.Context, q store.Selecter, familyID string) ([]models.User, error)
}

type Pusher interface {
	PushNotification(userID string, n models.Notification)
}

type Dispatcher interface {
	Dispatch(msg mailer.Message) bool
}

type Opener interface {
	Open(sealed string) (string, error)
}

// Notifier persists notifications and fans them out to websocket clients and,
// for important ones, to the recipients' own SMTP servers.
type Notifier struct {
	db      store.DB
	store   Store
	users   Users
	hub     Pusher
	mail    Dispatcher
	secrets Opener
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(db store.DB, notifications Store, users Users, hub Pusher, mail Dispatcher, secrets Opener, m *metrics.Metrics, log logrus.FieldLogger) *Notifier {
	return &Notifier{
		db:      db,
		store:   notifications,
		users:   users,
		hub:     hub,
		mail:    mail,
		secrets: secrets,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Record inserts the notification with tx. It is not delivered until Publish
// is called, normally after the surrounding transaction commits.
func (n *Notifier) Record(ctx context.Context, tx store.Execer, note models.Notification) (models.Notification, error) {
	if note.UserID == nil && note.FamilyID == nil {
		return models.Notification{}, ErrNoRecipient
	}
	note.ID = uuid.NewString()
	note.CreatedAt = n.now()
	if note.Kind == "" {
		note.Kind = models.NotificationInfo
	}
	if err := n.store.Create(ctx, tx, note); err != nil {
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return note, nil
}

// Emit records and publishes in one step, outside any caller transaction.
func (n *Notifier) Emit(ctx context.Context, note models.Notification) (models.Notification, error) {
	recorded, err := n.Record(ctx, n.db, note)
	if err != nil {
		return models.Notification{}, err
	}
	n.Publish(ctx, recorded)
	return recorded, nil
}

// Publish never fails; delivery problems are logged.
func (n *Notifier) Publish(ctx context.Context, notes ...models.Notification) {
	for _, note := range notes {
		n.metrics.NotificationEmitted(note.Kind)
		recipients, err := n.recipients(ctx, note)
		if err != nil {
			n.log.WithError(err).WithField("notification_id", note.ID).Warn("resolve notification recipients")
			continue
		}
		for _, user := range recipients {
			if n.hub != nil {
				n.hub.PushNotification(user.ID, note)
			}
			if note.IsImportant && user.HasSMTP() {
				n.mailTo(user, note)
			}
		}
	}
}

func (n *Notifier) recipients(ctx context.Context, note models.Notification) ([]models.User, error) {
	if note.UserID != nil {
		user, err := n.users.GetByID(ctx, *note.UserID)
		if err != nil {
			return nil, err
		}
		return []models.User{user}, nil
	}
	return n.users.ListByFamily(ctx, n.db, *note.FamilyID)
}

func (n *Notifier) mailTo(user models.User, note models.Notification) {
	if n.mail == nil {
		return
	}
	pass, err := n.secrets.Open(user.SMTPPassword)
	if err != nil {
		n.log.WithError(err).WithField("user_id", user.ID).Warn("open smtp password")
		return
	}
	n.mail.Dispatch(mailer.Message{
		To:        user.Email,
		Subject:   note.Title,
		HTML:      renderHTML(note),
		Host:      user.SMTPHost,
		Port:      user.SMTPPort,
		User:      user.SMTPUser,
		Pass:      pass,
		FromEmail: user.SMTPFromEmail,
		Secure:    user.SMTPSecure,
	})
}

func renderHTML(note models.Notification) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif"><h2>%s</h2><p>%s</p></div>`,
		html.EscapeString(note.Title), html.EscapeString(note.Message))
}
