package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type caixaFixture struct {
	sessions *fakeSessionRepo
	ledger   *fakeLedgerRepo
	settings *fakeSettingsRepo
	svc      service.CaixaService
	clinicID uuid.UUID
	userID   uuid.UUID
}

func newCaixaFixture() *caixaFixture {
	sessions := newFakeSessionRepo()
	ledger := &fakeLedgerRepo{}
	settings := newFakeSettingsRepo()
	settingsSvc := service.NewSettingsService(settings, nil)
	return &caixaFixture{
		sessions: sessions,
		ledger:   ledger,
		settings: settings,
		svc:      service.NewCaixaService(sessions, ledger, settingsSvc, nil),
		clinicID: uuid.New(),
		userID:   uuid.New(),
	}
}

func (f *caixaFixture) open(t *testing.T, balance decimal.Decimal) *dto.SessionResponse {
	t.Helper()
	resp, err := f.svc.Open(context.Background(), f.clinicID, f.userID, dto.OpenSessionRequest{
		OpeningBalance: balance,
	})
	require.NoError(t, err)
	return resp
}

func TestOpenSession(t *testing.T) {
	f := newCaixaFixture()

	resp := f.open(t, decimal.NewFromInt(100))

	assert.Equal(t, model.SessionOpen, resp.Status)
	assert.Equal(t, "100", resp.OpeningBalance.String())
	assert.Equal(t, "100", resp.CalculatedBalance.String())
}

func TestOpenSessionDuplicate(t *testing.T) {
	f := newCaixaFixture()
	f.open(t, decimal.NewFromInt(100))

	_, err := f.svc.Open(context.Background(), f.clinicID, f.userID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromInt(50),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
}

func TestOpenSessionConcurrentDuplicateTranslated(t *testing.T) {
	f := newCaixaFixture()
	// Two opens racing past the duplicate check: the partial unique index
	// rejects the second insert, and the driver error must surface as a
	// precondition failure rather than an internal error.
	f.sessions.createErr = gorm.ErrDuplicatedKey

	_, err := f.svc.Open(context.Background(), f.clinicID, f.userID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
}

func TestOpenSessionNegativeBalance(t *testing.T) {
	f := newCaixaFixture()

	_, err := f.svc.Open(context.Background(), f.clinicID, f.userID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromInt(-10),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	// Same clinic, policy flipped: negative opening is now accepted.
	s := model.DefaultFinancialSettings(f.clinicID)
	s.AllowNegativeBalance = true
	f.settings.byClinic[f.clinicID] = s

	resp, err := f.svc.Open(context.Background(), f.clinicID, f.userID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromInt(-10),
	})
	require.NoError(t, err)
	assert.Equal(t, "-10", resp.OpeningBalance.String())
}

func TestGetActiveWithoutSession(t *testing.T) {
	f := newCaixaFixture()

	resp, err := f.svc.GetActive(context.Background(), f.clinicID, f.userID)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestMovementRecomputesBalance(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))
	sessionID := uuid.MustParse(open.ID)

	// Cash receipt of 250 entered through the ledger.
	session := f.sessions.sessions[sessionID]
	require.NoError(t, f.svc.ApplyLedgerEntryTx(nil, session, &model.Transaction{
		ClinicID:      f.clinicID,
		SessionID:     &sessionID,
		Description:   "Recebimento consulta",
		Amount:        decimal.NewFromInt(250),
		Type:          model.TypeIncome,
		Category:      "Recebimento",
		PaymentMethod: model.MethodDinheiro,
		Status:        model.TxPaid,
	}))

	// Sangria of 50.
	require.NoError(t, f.svc.RegisterMovement(context.Background(), f.clinicID, f.userID, dto.MovementRequest{
		Type:        "sangria",
		Amount:      decimal.NewFromInt(50),
		Description: "Depósito no banco",
	}))

	// 100 + 250 − 50 = 300
	assert.Equal(t, "300", f.sessions.sessions[sessionID].CalculatedBalance.String())
	assert.Len(t, f.ledger.entries, 2)
	assert.Equal(t, model.CategorySangria, f.ledger.entries[1].Category)
	assert.Equal(t, model.TypeExpense, f.ledger.entries[1].Type)
}

func TestMovementWithoutOpenSession(t *testing.T) {
	f := newCaixaFixture()

	err := f.svc.RegisterMovement(context.Background(), f.clinicID, f.userID, dto.MovementRequest{
		Type:        "suprimento",
		Amount:      decimal.NewFromInt(100),
		Description: "Reforço de troco",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
	assert.Empty(t, f.ledger.entries)
}

func TestMovementInvalidAmount(t *testing.T) {
	f := newCaixaFixture()
	f.open(t, decimal.NewFromInt(100))

	err := f.svc.RegisterMovement(context.Background(), f.clinicID, f.userID, dto.MovementRequest{
		Type:        "sangria",
		Amount:      decimal.Zero,
		Description: "Teste",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	// Rejected movement leaves no ledger row behind.
	assert.Empty(t, f.ledger.entries)
}

func TestMovementUnknownTypeRejected(t *testing.T) {
	f := newCaixaFixture()
	f.open(t, decimal.NewFromInt(100))

	err := f.svc.RegisterMovement(context.Background(), f.clinicID, f.userID, dto.MovementRequest{
		Type:        "estorno",
		Amount:      decimal.NewFromInt(10),
		Description: "Tipo não suportado",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	assert.Empty(t, f.ledger.entries)
}

func TestCardEntryDoesNotTouchDrawer(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))
	sessionID := uuid.MustParse(open.ID)
	session := f.sessions.sessions[sessionID]

	require.NoError(t, f.svc.ApplyLedgerEntryTx(nil, session, &model.Transaction{
		ClinicID:      f.clinicID,
		SessionID:     &sessionID,
		Description:   "Recebimento Pix",
		Amount:        decimal.NewFromInt(400),
		Type:          model.TypeIncome,
		Category:      "Recebimento",
		PaymentMethod: model.MethodPix,
		Status:        model.TxPaid,
	}))

	assert.Equal(t, "100", f.sessions.sessions[sessionID].CalculatedBalance.String())
}

func TestExpenseDinheiroRequiresOpenSession(t *testing.T) {
	f := newCaixaFixture()

	// force_cash_opening defaults to true: a cash expense without a session
	// is refused outright.
	err := f.svc.RecordExpense(context.Background(), f.clinicID, f.userID, dto.ExpenseRequest{
		Description:   "Material de limpeza",
		Amount:        decimal.NewFromInt(80),
		Category:      "Despesa Variável",
		PaymentMethod: string(model.MethodDinheiro),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))

	// A boleto expense never touches the drawer, so it goes through.
	err = f.svc.RecordExpense(context.Background(), f.clinicID, f.userID, dto.ExpenseRequest{
		Description:   "Aluguel do mês",
		Amount:        decimal.NewFromInt(3000),
		Category:      "Aluguel",
		PaymentMethod: string(model.MethodBoleto),
	})
	require.NoError(t, err)
	require.Len(t, f.ledger.entries, 1)
	assert.Nil(t, f.ledger.entries[0].SessionID)
}

func TestFutureExpenseRecordedPendingAndSettled(t *testing.T) {
	f := newCaixaFixture()
	future := time.Now().AddDate(0, 0, 10).Format("2006-01-02")

	err := f.svc.RecordExpense(context.Background(), f.clinicID, f.userID, dto.ExpenseRequest{
		Description:   "Aluguel do próximo mês",
		Amount:        decimal.NewFromInt(2000),
		Category:      "Aluguel",
		PaymentMethod: string(model.MethodBoleto),
		Date:          future,
	})
	require.NoError(t, err)
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, model.TxPending, entry.Status)
	assert.Nil(t, entry.SessionID)

	require.NoError(t, f.svc.SettleExpense(context.Background(), f.clinicID, entry.ID))
	assert.Equal(t, model.TxPaid, f.ledger.entries[0].Status)

	// Settling twice is refused.
	err = f.svc.SettleExpense(context.Background(), f.clinicID, entry.ID)
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
}

func TestFutureExpenseInCashRejected(t *testing.T) {
	f := newCaixaFixture()
	f.open(t, decimal.NewFromInt(100))
	future := time.Now().AddDate(0, 0, 10).Format("2006-01-02")

	err := f.svc.RecordExpense(context.Background(), f.clinicID, f.userID, dto.ExpenseRequest{
		Description:   "Adiantamento em dinheiro",
		Amount:        decimal.NewFromInt(50),
		Category:      "Despesa Variável",
		PaymentMethod: string(model.MethodDinheiro),
		Date:          future,
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	assert.Empty(t, f.ledger.entries)
}

func TestSettleExpenseFromAnotherClinicIsInvisible(t *testing.T) {
	f := newCaixaFixture()
	future := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	require.NoError(t, f.svc.RecordExpense(context.Background(), f.clinicID, f.userID, dto.ExpenseRequest{
		Description:   "Folha de setembro",
		Amount:        decimal.NewFromInt(4000),
		Category:      "Folha de Pagamento",
		PaymentMethod: string(model.MethodTransferencia),
		Date:          future,
	}))

	err := f.svc.SettleExpense(context.Background(), uuid.New(), f.ledger.entries[0].ID)
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
	assert.Equal(t, model.TxPending, f.ledger.entries[0].Status)
}

func TestConferenceShowsTotals(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))
	sessionID := uuid.MustParse(open.ID)
	session := f.sessions.sessions[sessionID]

	require.NoError(t, f.svc.ApplyLedgerEntryTx(nil, session, &model.Transaction{
		ClinicID: f.clinicID, SessionID: &sessionID,
		Description: "Recebimento", Amount: decimal.NewFromInt(250),
		Type: model.TypeIncome, Category: "Recebimento",
		PaymentMethod: model.MethodDinheiro, Status: model.TxPaid,
	}))
	require.NoError(t, f.svc.ApplyLedgerEntryTx(nil, session, &model.Transaction{
		ClinicID: f.clinicID, SessionID: &sessionID,
		Description: "Recebimento", Amount: decimal.NewFromInt(150),
		Type: model.TypeIncome, Category: "Recebimento",
		PaymentMethod: model.MethodCartaoCredito, Status: model.TxPaid,
	}))

	resp, err := f.svc.Conference(context.Background(), f.clinicID, sessionID)
	require.NoError(t, err)
	assert.False(t, resp.Blind)
	require.NotNil(t, resp.ExpectedCash)
	require.NotNil(t, resp.ExpectedCardPix)
	assert.Equal(t, "350", resp.ExpectedCash.String())
	assert.Equal(t, "150", resp.ExpectedCardPix.String())
}

func TestConferenceBlindHidesTotals(t *testing.T) {
	f := newCaixaFixture()
	s := model.DefaultFinancialSettings(f.clinicID)
	s.BlindClosing = true
	f.settings.byClinic[f.clinicID] = s

	open := f.open(t, decimal.NewFromInt(100))
	resp, err := f.svc.Conference(context.Background(), f.clinicID, uuid.MustParse(open.ID))
	require.NoError(t, err)
	assert.True(t, resp.Blind)
	assert.Nil(t, resp.ExpectedCash)
	assert.Nil(t, resp.ExpectedCardPix)
}

func TestCloseWithinTolerance(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))
	sessionID := uuid.MustParse(open.ID)
	session := f.sessions.sessions[sessionID]

	require.NoError(t, f.svc.ApplyLedgerEntryTx(nil, session, &model.Transaction{
		ClinicID: f.clinicID, SessionID: &sessionID,
		Description: "Recebimento", Amount: decimal.NewFromInt(200),
		Type: model.TypeIncome, Category: "Recebimento",
		PaymentMethod: model.MethodDinheiro, Status: model.TxPaid,
	}))

	// Expected 300, declared 295, tolerance 50 → clean close, no reason needed.
	resp, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(295),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, resp.Status)
	require.NotNil(t, resp.DifferenceAmount)
	assert.Equal(t, "-5", resp.DifferenceAmount.String())
	assert.Equal(t, model.SessionClosed, f.sessions.sessions[sessionID].Status)
}

func TestCloseBeyondToleranceRequiresReason(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(300))
	sessionID := uuid.MustParse(open.ID)

	// Expected 300, declared 200 → difference -100 beyond tolerance 50.
	_, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(200),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	// Refused close leaves the session open.
	assert.Equal(t, model.SessionOpen, f.sessions.sessions[sessionID].Status)

	reason := "Faltante identificado na contagem do turno"
	resp, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:        open.ID,
		DeclaredCash:     decimal.NewFromInt(200),
		DifferenceReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionAuditPending, resp.Status)
	assert.Equal(t, model.SessionAuditPending, f.sessions.sessions[sessionID].Status)
	require.NotNil(t, f.sessions.sessions[sessionID].DifferenceReason)
}

func TestCloseToleranceBoundaryInclusive(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(300))

	// |difference| exactly at the threshold still closes cleanly.
	resp, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, resp.Status)
}

func TestCloseAlreadyClosed(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))

	_, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
}

func TestCloseBlindHidesDiscrepancyFromOperator(t *testing.T) {
	f := newCaixaFixture()
	s := model.DefaultFinancialSettings(f.clinicID)
	s.BlindClosing = true
	f.settings.byClinic[f.clinicID] = s

	open := f.open(t, decimal.NewFromInt(100))
	resp, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.DifferenceAmount)
	assert.Nil(t, resp.ExpectedCash)
}

func TestCloseBlindShowsDiscrepancyToManager(t *testing.T) {
	f := newCaixaFixture()
	s := model.DefaultFinancialSettings(f.clinicID)
	s.BlindClosing = true
	f.settings.byClinic[f.clinicID] = s

	open := f.open(t, decimal.NewFromInt(100))
	resp, err := f.svc.Close(context.Background(), f.clinicID, model.RoleGerente, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.DifferenceAmount)
	assert.Equal(t, "-10", resp.DifferenceAmount.String())
}

func TestSessionFromAnotherClinicIsInvisible(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))

	_, err := f.svc.Conference(context.Background(), uuid.New(), uuid.MustParse(open.ID))
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
}

func TestHistoryListsOnlyTerminalSessions(t *testing.T) {
	f := newCaixaFixture()
	open := f.open(t, decimal.NewFromInt(100))
	_, err := f.svc.Close(context.Background(), f.clinicID, model.RoleOperador, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// A new open session must not appear in the history.
	f.open(t, decimal.NewFromInt(50))

	list, total, err := f.svc.History(context.Background(), f.clinicID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, model.SessionClosed, list[0].Status)
}

func TestReportHidesDifferenceUnderBlindClosing(t *testing.T) {
	f := newCaixaFixture()
	s := model.DefaultFinancialSettings(f.clinicID)
	s.BlindClosing = true
	f.settings.byClinic[f.clinicID] = s

	open := f.open(t, decimal.NewFromInt(100))
	sessionID := uuid.MustParse(open.ID)
	_, err := f.svc.Close(context.Background(), f.clinicID, model.RoleGerente, dto.CloseSessionRequest{
		SessionID:    open.ID,
		DeclaredCash: decimal.NewFromInt(90),
	})
	require.NoError(t, err)

	operatorView, err := f.svc.Report(context.Background(), f.clinicID, model.RoleOperador, sessionID)
	require.NoError(t, err)
	assert.Nil(t, operatorView.Session.DifferenceAmount)

	managerView, err := f.svc.Report(context.Background(), f.clinicID, model.RoleGerente, sessionID)
	require.NoError(t, err)
	require.NotNil(t, managerView.Session.DifferenceAmount)
	assert.Equal(t, "-10", managerView.Session.DifferenceAmount.String())
}
