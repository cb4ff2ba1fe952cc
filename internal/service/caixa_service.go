package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Movement kinds accepted by RegisterMovement.
const (
	MovementSangria    = "sangria"
	MovementSuprimento = "suprimento"
)

type CaixaService interface {
	Open(ctx context.Context, clinicID, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	GetActive(ctx context.Context, clinicID, userID uuid.UUID) (*dto.SessionResponse, error)
	RegisterMovement(ctx context.Context, clinicID, userID uuid.UUID, req dto.MovementRequest) error
	RecordExpense(ctx context.Context, clinicID, userID uuid.UUID, req dto.ExpenseRequest) error
	Conference(ctx context.Context, clinicID uuid.UUID, sessionID uuid.UUID) (*dto.ConferenceResponse, error)
	Close(ctx context.Context, clinicID uuid.UUID, role string, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	Report(ctx context.Context, clinicID uuid.UUID, role string, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	History(ctx context.Context, clinicID uuid.UUID, page, limit int) ([]dto.SessionResponse, int64, error)
	SettleExpense(ctx context.Context, clinicID, txID uuid.UUID) error

	// RequireOpenSession is called by CheckoutService before any
	// drawer-affecting sale. Applies the force_cash_opening policy.
	RequireOpenSession(ctx context.Context, clinicID, userID uuid.UUID) (*model.CashSession, error)
	// ApplyLedgerEntryTx writes a ledger row and, when the entry moves
	// physical cash, recomputes the session balance — both inside the
	// caller's transaction so a failure applies neither.
	ApplyLedgerEntryTx(tx *gorm.DB, session *model.CashSession, entry *model.Transaction) error
}

type caixaService struct {
	sessions   repository.SessionRepository
	ledger     repository.TransactionRepository
	settings   SettingsService
	dispatcher *worker.Dispatcher
}

func NewCaixaService(
	sessions repository.SessionRepository,
	ledger repository.TransactionRepository,
	settings SettingsService,
	dispatcher *worker.Dispatcher,
) CaixaService {
	return &caixaService{
		sessions:   sessions,
		ledger:     ledger,
		settings:   settings,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *caixaService) Open(ctx context.Context, clinicID, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	policy, err := s.settings.Policy(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if !policy.AllowsOpeningBalance(req.OpeningBalance) {
		return nil, apierror.Invalid("saldo inicial negativo não é permitido pela política da clínica")
	}

	// Guard: no duplicate open session per (user, clinic). The partial
	// unique index closes the race this check leaves open.
	if existing, err := s.sessions.FindOpenByUser(ctx, clinicID, userID); err == nil && existing != nil {
		return nil, apierror.Blocked("já existe um caixa aberto para este usuário")
	}

	session := &model.CashSession{
		ClinicID:          clinicID,
		UserID:            userID,
		OpeningBalance:    req.OpeningBalance,
		CalculatedBalance: req.OpeningBalance,
		Status:            model.SessionOpen,
		OpenedAt:          time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		// Two concurrent opens can both pass the check above; the partial
		// unique index rejects the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Blocked("já existe um caixa aberto para este usuário")
		}
		return nil, err
	}
	return sessionToResponse(session), nil
}

// ── GetActive ────────────────────────────────────────────────────────────────

func (s *caixaService) GetActive(ctx context.Context, clinicID, userID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindOpenByUser(ctx, clinicID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sessionToResponse(session), nil
}

// RequireOpenSession returns the caller's open session, or a precondition
// error. When force_cash_opening is off a missing session is tolerated and
// (nil, nil) is returned — the entry is then recorded without a session.
func (s *caixaService) RequireOpenSession(ctx context.Context, clinicID, userID uuid.UUID) (*model.CashSession, error) {
	session, err := s.sessions.FindOpenByUser(ctx, clinicID, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	policy, perr := s.settings.Policy(ctx, clinicID)
	if perr != nil {
		return nil, perr
	}
	if policy.RequiresOpenSession() {
		return nil, apierror.Blocked("não há caixa aberto — abra o caixa antes de registrar operações")
	}
	return nil, nil
}

// ── RegisterMovement ─────────────────────────────────────────────────────────
// Sangria / suprimento. Sempre em dinheiro. Ledger insert and balance
// recompute run in ONE transaction — a concurrent movement can never leave
// the stored balance stale.

func (s *caixaService) RegisterMovement(ctx context.Context, clinicID, userID uuid.UUID, req dto.MovementRequest) error {
	if !req.Amount.IsPositive() {
		return apierror.Invalid("o valor do movimento deve ser maior que zero")
	}
	if strings.TrimSpace(req.Description) == "" {
		return apierror.Invalid("a descrição do movimento é obrigatória")
	}

	var txType, category string
	switch req.Type {
	case MovementSangria:
		txType = model.TypeExpense
		category = model.CategorySangria
	case MovementSuprimento:
		txType = model.TypeIncome
		category = model.CategorySuprimento
	default:
		return apierror.Invalid("tipo de movimento desconhecido: " + req.Type)
	}

	session, err := s.sessions.FindOpenByUser(ctx, clinicID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Blocked("não há caixa aberto para registrar o movimento")
		}
		return err
	}

	sessionID := session.ID
	entry := &model.Transaction{
		ClinicID:      clinicID,
		SessionID:     &sessionID,
		Description:   req.Description,
		Amount:        req.Amount,
		Type:          txType,
		Category:      category,
		PaymentMethod: model.MethodDinheiro,
		Date:          time.Now(),
		Status:        model.TxPaid,
	}

	return runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		return s.ApplyLedgerEntryTx(tx, session, entry)
	})
}

// ── RecordExpense ────────────────────────────────────────────────────────────

func (s *caixaService) RecordExpense(ctx context.Context, clinicID, userID uuid.UUID, req dto.ExpenseRequest) error {
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return apierror.Invalid("forma de pagamento desconhecida: " + req.PaymentMethod)
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return apierror.Invalid("data inválida, use o formato AAAA-MM-DD")
		}
		date = parsed
	}

	// A future-dated expense is a payable: recorded as pending, settled
	// later. Nothing left the drawer yet, so cash is not a valid method.
	status := model.TxPaid
	if date.After(time.Now()) {
		if method.AffectsDrawer() {
			return apierror.Invalid("despesa com data futura não pode ser em dinheiro")
		}
		status = model.TxPending
	}

	var session *model.CashSession
	if status == model.TxPaid && method.AffectsDrawer() {
		var err error
		session, err = s.RequireOpenSession(ctx, clinicID, userID)
		if err != nil {
			return err
		}
	}

	entry := &model.Transaction{
		ClinicID:      clinicID,
		Description:   req.Description,
		Amount:        req.Amount,
		Type:          model.TypeExpense,
		Category:      req.Category,
		PaymentMethod: method,
		Date:          date,
		Status:        status,
	}
	if session != nil {
		sessionID := session.ID
		entry.SessionID = &sessionID
	}

	return runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		return s.ApplyLedgerEntryTx(tx, session, entry)
	})
}

// SettleExpense marks a pending payable as paid. Pending expenses are
// settled at the bank (boleto/transferência), so the drawer is untouched.
func (s *caixaService) SettleExpense(ctx context.Context, clinicID, txID uuid.UUID) error {
	entry, err := s.ledger.FindByID(ctx, clinicID, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Missing("despesa não encontrada")
		}
		return err
	}
	if entry.Type != model.TypeExpense || entry.Status != model.TxPending {
		return apierror.Blocked("apenas despesas pendentes podem ser baixadas")
	}
	return s.ledger.UpdateStatus(ctx, clinicID, txID, model.TxPaid)
}

// ── ApplyLedgerEntryTx ───────────────────────────────────────────────────────

func (s *caixaService) ApplyLedgerEntryTx(tx *gorm.DB, session *model.CashSession, entry *model.Transaction) error {
	if err := s.ledger.CreateTx(tx, entry); err != nil {
		return err
	}
	if session == nil || !entry.PaymentMethod.AffectsDrawer() {
		return nil
	}

	sums, err := s.ledger.SumBySessionMethodTx(tx, session.ID)
	if err != nil {
		return err
	}
	balance := session.OpeningBalance.Add(sums[model.MethodDinheiro])
	session.CalculatedBalance = balance
	return s.sessions.SetCalculatedBalanceTx(tx, session.ID, balance)
}

// ── Conference (closing steps 1–2) ───────────────────────────────────────────

func (s *caixaService) Conference(ctx context.Context, clinicID uuid.UUID, sessionID uuid.UUID) (*dto.ConferenceResponse, error) {
	session, err := s.findClinicSession(ctx, clinicID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, apierror.Blocked("a sessão já está fechada")
	}

	policy, err := s.settings.Policy(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ConferenceResponse{
		SessionID: session.ID.String(),
		Blind:     policy.BlindClosing(),
	}
	if policy.BlindClosing() {
		// Intentional information asymmetry: the operator declares first.
		return resp, nil
	}

	expectedCash, expectedCardPix, err := s.expectedTotals(ctx, session)
	if err != nil {
		return nil, err
	}
	resp.ExpectedCash = &expectedCash
	resp.ExpectedCardPix = &expectedCardPix
	return resp, nil
}

// ── Close (closing step 3, terminal) ─────────────────────────────────────────

func (s *caixaService) Close(ctx context.Context, clinicID uuid.UUID, role string, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apierror.Invalid("session_id inválido")
	}
	session, err := s.findClinicSession(ctx, clinicID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, apierror.Blocked("a sessão já está fechada")
	}

	policy, err := s.settings.Policy(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	expectedCash, expectedCardPix, err := s.expectedTotals(ctx, session)
	if err != nil {
		return nil, err
	}

	difference := req.DeclaredCash.Sub(expectedCash)
	status := model.SessionClosed
	if !policy.WithinTolerance(difference) {
		status = model.SessionAuditPending
		if req.DifferenceReason == nil || strings.TrimSpace(*req.DifferenceReason) == "" {
			return nil, apierror.Invalid("a diferença excede o limite da clínica — informe a justificativa")
		}
	}

	// Single terminal write; the repo refuses it if the session closed
	// concurrently.
	closeData := repository.SessionCloseData{
		Status:           status,
		ClosedAt:         time.Now(),
		DeclaredBalance:  req.DeclaredCash,
		DeclaredCardPix:  req.DeclaredCardPix,
		DifferenceAmount: difference,
		DifferenceReason: req.DifferenceReason,
	}
	if err := s.sessions.Close(ctx, session.ID, closeData); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Blocked("a sessão já está fechada")
		}
		return nil, err
	}

	s.enqueueClosingReport(ctx, session.ID, status)

	resp := &dto.CloseSessionResponse{
		SessionID: session.ID.String(),
		Status:    status,
	}
	if policy.ShowsDiscrepancy(role) {
		resp.DifferenceAmount = &difference
		resp.ExpectedCash = &expectedCash
		resp.ExpectedCardPix = &expectedCardPix
	}
	return resp, nil
}

// enqueueClosingReport is best-effort: the close already committed, a queue
// hiccup must not fail it.
func (s *caixaService) enqueueClosingReport(ctx context.Context, sessionID uuid.UUID, status string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.EnqueueClosing(ctx, worker.ClosingJobPayload{
		SessionID:    sessionID.String(),
		AuditPending: status == model.SessionAuditPending,
	})
}

// ── Report / History ─────────────────────────────────────────────────────────

func (s *caixaService) Report(ctx context.Context, clinicID uuid.UUID, role string, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.findClinicSession(ctx, clinicID, sessionID)
	if err != nil {
		return nil, err
	}

	policy, err := s.settings.Policy(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	txs, err := s.ledger.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	expectedCash, cardPix, err := s.expectedTotals(ctx, session)
	if err != nil {
		return nil, err
	}

	sessionResp := sessionToResponse(session)
	if session.IsTerminal() && !policy.ShowsDiscrepancy(role) {
		sessionResp.DifferenceAmount = nil
		sessionResp.DifferenceReason = nil
	}

	resp := &dto.SessionReportResponse{
		Session:      *sessionResp,
		ExpectedCash: expectedCash,
		CardPixTotal: cardPix,
	}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, dto.TransactionResponse{
			ID:            t.ID.String(),
			Description:   t.Description,
			Amount:        t.Amount,
			Type:          t.Type,
			Category:      t.Category,
			PaymentMethod: string(t.PaymentMethod),
			Date:          t.Date.Format(time.RFC3339),
			Status:        t.Status,
		})
	}
	return resp, nil
}

func (s *caixaService) History(ctx context.Context, clinicID uuid.UUID, page, limit int) ([]dto.SessionResponse, int64, error) {
	sessions, total, err := s.sessions.ListTerminal(ctx, clinicID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, *sessionToResponse(&sessions[i]))
	}
	return resp, total, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *caixaService) findClinicSession(ctx context.Context, clinicID, sessionID uuid.UUID) (*model.CashSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.Missing("sessão de caixa não encontrada")
	}
	// Clinic scoping is explicit everywhere — a session from another clinic
	// is indistinguishable from a missing one.
	if session.ClinicID != clinicID {
		return nil, apierror.Missing("sessão de caixa não encontrada")
	}
	return session, nil
}

// expectedTotals computes the system side of the reconciliation:
// cash = opening + net Dinheiro; card/pix = net of Pix and card methods.
func (s *caixaService) expectedTotals(ctx context.Context, session *model.CashSession) (cash, cardPix decimal.Decimal, err error) {
	sums, err := s.ledger.SumBySessionMethod(ctx, session.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	cash = session.OpeningBalance.Add(sums[model.MethodDinheiro])
	for method, net := range sums {
		if method.IsCardOrPix() {
			cardPix = cardPix.Add(net)
		}
	}
	return cash, cardPix, nil
}

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:                s.ID.String(),
		Status:            s.Status,
		OpeningBalance:    s.OpeningBalance,
		CalculatedBalance: s.CalculatedBalance,
		OpenedAt:          s.OpenedAt.Format(time.RFC3339),
		DeclaredBalance:   s.DeclaredBalance,
		DeclaredCardPix:   s.DeclaredCardPix,
		DifferenceAmount:  s.DifferenceAmount,
		DifferenceReason:  s.DifferenceReason,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
