package notifier

import (
	"context"
	"time"

	"github.com/chirp-social/backend/internal/mailer"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/chirp-social/backend/pkg/push"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Notifier delivers stored notifications over the optional email and push
// channels, gated on the addressee's settings. Delivery failures are logged
// and never surfaced to the request that created the notification.
type Notifier struct {
	logger        *zap.Logger
	users         repositories.UserRepository
	settings      repositories.NotificationSettingsRepository
	notifications repositories.NotificationRepository
	mailer        *mailer.Mailer
	push          *push.Client
	scheduler     gocron.Scheduler
}

// New creates a Notifier. mailer and pushClient may be nil, disabling the
// respective channel.
func New(
	logger *zap.Logger,
	users repositories.UserRepository,
	settings repositories.NotificationSettingsRepository,
	notifications repositories.NotificationRepository,
	m *mailer.Mailer,
	pushClient *push.Client,
) *Notifier {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err)
	}
	return &Notifier{
		logger:        logger,
		users:         users,
		settings:      settings,
		notifications: notifications,
		mailer:        m,
		push:          pushClient,
		scheduler:     scheduler,
	}
}

// Dispatch delivers one already-persisted notification to the enabled
// channels of its addressee.
func (n *Notifier) Dispatch(ctx context.Context, notification *models.Notification) {
	settings, err := n.settings.GetOrCreate(ctx, notification.To)
	if err != nil {
		n.logger.Error("failed to load notification settings",
			zap.String("user", notification.To.Hex()), zap.Error(err))
		return
	}
	if !settings.Allows(notification.Type) {
		return
	}

	sender, err := n.users.GetUserByID(ctx, notification.From)
	if err != nil {
		n.logger.Error("failed to load notification sender",
			zap.String("user", notification.From.Hex()), zap.Error(err))
		return
	}
	subject, body := messageFor(notification.Type, sender.Username)

	if settings.EmailNotifications && n.mailer != nil {
		recipient, err := n.users.GetUserByID(ctx, notification.To)
		if err != nil {
			n.logger.Error("failed to load notification recipient",
				zap.String("user", notification.To.Hex()), zap.Error(err))
		} else if err := n.mailer.SendNotificationMail(recipient.Email, subject, body); err != nil {
			n.logger.Error("failed to send notification mail",
				zap.String("user", notification.To.Hex()), zap.Error(err))
		}
	}

	if settings.PushNotifications && n.push != nil {
		if err := n.push.SendToUser(ctx, notification.To.Hex(), subject, body); err != nil {
			n.logger.Error("failed to send push notification",
				zap.String("user", notification.To.Hex()), zap.Error(err))
		}
	}
}

func messageFor(notificationType, username string) (subject, body string) {
	switch notificationType {
	case models.NotificationTypeFollow:
		return "New follower", username + " started following you"
	case models.NotificationTypeLike:
		return "New like", username + " liked your post"
	case models.NotificationTypeComment:
		return "New comment", username + " commented on your post"
	case models.NotificationTypeReply:
		return "New reply", username + " replied to your comment"
	default:
		return "New notification", username + " sent you a notification"
	}
}

// StartJobs starts the background scheduler.
func (n *Notifier) StartJobs() {
	n.newUnreadDigestJob()
	n.scheduler.Start()
}

// StopJobs shuts the scheduler down.
func (n *Notifier) StopJobs() {
	if err := n.scheduler.Shutdown(); err != nil {
		n.logger.Error("failed to shut down notifier scheduler", zap.Error(err))
	}
}

func (n *Notifier) newUnreadDigestJob() {
	n.scheduler.NewJob(gocron.DurationJob(time.Hour*24), gocron.NewTask(func(ctx context.Context) {
		n.SendUnreadDigests(ctx)
	}))
}

// SendUnreadDigests emails one digest per user with unread notifications and
// email delivery enabled.
func (n *Notifier) SendUnreadDigests(ctx context.Context) {
	if n.mailer == nil {
		return
	}

	counts, err := n.notifications.UnreadCountsByRecipient(ctx)
	if err != nil {
		n.logger.Error("failed to aggregate unread notification counts", zap.Error(err))
		return
	}

	for userID, count := range counts {
		settings, err := n.settings.GetOrCreate(ctx, userID)
		if err != nil {
			n.logger.Error("failed to load notification settings",
				zap.String("user", userID.Hex()), zap.Error(err))
			continue
		}
		if !settings.EmailNotifications {
			continue
		}

		user, err := n.users.GetUserByID(ctx, userID)
		if err != nil {
			n.logger.Error("failed to load digest recipient",
				zap.String("user", userID.Hex()), zap.Error(err))
			continue
		}
		if err := n.mailer.SendUnreadDigestMail(user.Email, count); err != nil {
			n.logger.Error("failed to send digest mail",
				zap.String("user", userID.Hex()), zap.Error(err))
		}
	}
}
