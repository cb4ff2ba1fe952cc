package worker

// email_worker.go
// Processes email jobs from QueueEmail through the SMTP circuit breaker so
// a downed relay fast-fails instead of blocking the pool.

import (
	"context"
	"encoding/json"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends the message, attaching the PDF when present. Returning an
// error hands the job back to the pool's retry/DLQ path.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: message sent")
	return nil
}
