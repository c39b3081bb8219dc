package notify

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// notifyTimeout bounds the notification command.
const notifyTimeout = 2 * time.Second

// Notifier shows desktop notifications through a configured external
// command. Notifications are best-effort: failures are logged at debug
// level and never surface to the caller.
type Notifier struct {
	cmd     []string
	enabled bool
	log     zerolog.Logger
}

// New builds a Notifier. An empty command selects notify-send with the
// application name as title. The message is appended as the final
// argument.
func New(cmd []string, enabled bool) *Notifier {
	if len(cmd) == 0 {
		cmd = []string{"notify-send", "SnipText"}
	}
	return &Notifier{
		cmd:     cmd,
		enabled: enabled,
		log:     logging.GetLogger("notify"),
	}
}

// Notify shows a notification with the given message.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if !n.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	argv := append(append([]string(nil), n.cmd...), message)
	if err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run(); err != nil {
		n.log.Debug().Err(err).Msg("Could not show notification")
	}
}
