package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/contractor-portal/internal/notify"
	"github.com/spec-kit/contractor-portal/internal/worker"
)

func newWorkerCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued emails from RabbitMQ through Mailgun",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := rt.cfg.Notification
			if n.MailgunDomain == "" || n.MailgunAPIKey == "" {
				return errors.New("worker requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
			}
			mailer := notify.NewMailgunSender(n.MailgunDomain, n.MailgunAPIKey, n.EmailFrom)
			return worker.NewEmailWorker(mailer, rt.logger).Run(cmd.Context(), n.AMQPURL, n.AMQPQueue)
		},
	}
}
