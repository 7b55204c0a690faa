package notifier

import (
	"context"
	"errors"

	"github.com/aleister1102/robotswatch/internal/models"
)

// ErrAuthentication marks a failure to log in to the mail server. Once seen,
// no further SMTP attempts are made during the same flush.
var ErrAuthentication = errors.New("email login failed")

// Notifier delivers one message.
type Notifier interface {
	Send(ctx context.Context, msg models.Message) error
}
