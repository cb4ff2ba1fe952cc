package worker

// closing_worker.go
// Processes closing-report jobs from QueueClosing: renders the session's
// closing PDF and, when the session landed in audit_pending, enqueues the
// manager alert e-mail with the PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/infra"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ClosingJobPayload is the job envelope sent to QueueClosing.
type ClosingJobPayload struct {
	SessionID    string `json:"session_id"`
	AuditPending bool   `json:"audit_pending"`
}

type ClosingWorker struct {
	sessions    repository.SessionRepository
	ledger      repository.TransactionRepository
	dispatcher  *Dispatcher
	storagePath string
	alertEmail  string
}

func NewClosingWorker(
	sessions repository.SessionRepository,
	ledger repository.TransactionRepository,
	dispatcher *Dispatcher,
	storagePath, alertEmail string,
) *ClosingWorker {
	return &ClosingWorker{
		sessions:    sessions,
		ledger:      ledger,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		alertEmail:  alertEmail,
	}
}

func (w *ClosingWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ClosingJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closing_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("closing_worker: invalid session id")
		return nil
	}

	session, err := w.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("closing_worker: load session %s: %w", sessionID, err)
	}

	sums, err := w.ledger.SumBySessionMethod(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("closing_worker: sum session %s: %w", sessionID, err)
	}
	rep := infra.ClosingReport{
		Session:      session,
		ExpectedCash: session.OpeningBalance.Add(sums[model.MethodDinheiro]),
	}
	for method, net := range sums {
		if method.IsCardOrPix() {
			rep.ExpectedCardPix = rep.ExpectedCardPix.Add(net)
		}
	}

	pdfPath, err := infra.GenerateClosingPDF(rep, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("session_id", payload.SessionID).Str("pdf", pdfPath).Msg("closing_worker: report generated")

	if !payload.AuditPending || w.alertEmail == "" {
		return nil
	}
	return w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.alertEmail,
		Subject: "Fechamento de caixa pendente de auditoria",
		Body: fmt.Sprintf(
			"A sessão de caixa %s foi fechada com diferença acima do limite e aguarda auditoria.",
			payload.SessionID,
		),
		PDFPath: pdfPath,
	})
}
