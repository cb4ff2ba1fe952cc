package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	*caixaFixture
	sales *fakeSaleRepo
	svc   service.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	caixa := newCaixaFixture()
	sales := newFakeSaleRepo()
	return &checkoutFixture{
		caixaFixture: caixa,
		sales:        sales,
		svc:          service.NewCheckoutService(sales, caixa.svc),
	}
}

func TestSimulateReconstruction(t *testing.T) {
	f := newCheckoutFixture()

	cases := []struct {
		name  string
		tier  string
		rail  string
		base  decimal.Decimal
		count int
	}{
		{"A smart", "A", model.RailSmart, decimal.NewFromInt(1000), 12},
		{"A boleto", "A", model.RailBoleto, decimal.NewFromInt(997), 7},
		{"B boleto", "B", model.RailBoleto, decimal.NewFromFloat(1333.33), 10},
		{"C boleto", "C", model.RailBoleto, decimal.NewFromFloat(850.10), 6},
		{"D smart", "D", model.RailSmart, decimal.NewFromFloat(299.99), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
				BaseValue:        tc.base,
				CreditTier:       tc.tier,
				Rail:             tc.rail,
				InstallmentCount: tc.count,
			})
			require.NoError(t, err)
			total := plan.DownPayment.
				Add(plan.InstallmentValue.Mul(decimal.NewFromInt(int64(plan.InstallmentCount - 1)))).
				Add(plan.LastInstallment)
			assert.True(t, total.Equal(plan.TotalValue),
				"plan does not reconstruct: %s != %s", total, plan.TotalValue)
		})
	}
}

func TestSimulateTierAHasNoMarkup(t *testing.T) {
	f := newCheckoutFixture()

	plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(1000),
		CreditTier:       "A",
		Rail:             model.RailBoleto,
		InstallmentCount: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000", plan.TotalValue.String())
	assert.Equal(t, "0", plan.MinDownPayment.String())
	assert.False(t, plan.GuarantorRequired)
}

func TestSimulateTierBMarkupAndDownPayment(t *testing.T) {
	f := newCheckoutFixture()

	plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(1000),
		CreditTier:       "B",
		Rail:             model.RailBoleto,
		InstallmentCount: 10,
	})
	require.NoError(t, err)
	// 5% markup → 1050; min down 10% → 105.
	assert.Equal(t, "1050", plan.TotalValue.String())
	assert.Equal(t, "105", plan.MinDownPayment.String())
	assert.Equal(t, "105", plan.DownPayment.String())
	assert.Equal(t, 10, plan.InstallmentCount)
}

func TestSimulateTierCRequiresGuarantor(t *testing.T) {
	f := newCheckoutFixture()

	plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(600),
		CreditTier:       "C",
		Rail:             model.RailBoleto,
		InstallmentCount: 6,
	})
	require.NoError(t, err)
	assert.True(t, plan.GuarantorRequired)
	assert.Equal(t, "660", plan.TotalValue.String()) // 10% markup
	assert.Equal(t, 6, plan.MaxInstallments)
}

func TestSimulateTierDBoletoUnavailable(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(500),
		CreditTier:       "D",
		Rail:             model.RailBoleto,
		InstallmentCount: 3,
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
}

func TestSimulateClampsInstallmentCount(t *testing.T) {
	f := newCheckoutFixture()

	// Smart caps at 12 regardless of the requested count.
	plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(1200),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 48,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, plan.InstallmentCount)

	// Tier C boleto caps at 6.
	plan, err = f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(1200),
		CreditTier:       "C",
		Rail:             model.RailBoleto,
		InstallmentCount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, plan.InstallmentCount)

	// Zero requests are lifted to a single installment.
	plan, err = f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(1200),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.InstallmentCount)
}

func TestSimulateClampsDownPayment(t *testing.T) {
	f := newCheckoutFixture()

	below := decimal.NewFromInt(50) // below the 20% minimum of 132
	plan, err := f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(600),
		CreditTier:       "C",
		Rail:             model.RailBoleto,
		InstallmentCount: 6,
		DownPayment:      &below,
	})
	require.NoError(t, err)
	assert.Equal(t, "132", plan.DownPayment.String())

	above := decimal.NewFromInt(9999)
	plan, err = f.svc.Simulate(dto.SimulatePlanRequest{
		BaseValue:        decimal.NewFromInt(600),
		CreditTier:       "C",
		Rail:             model.RailBoleto,
		InstallmentCount: 6,
		DownPayment:      &above,
	})
	require.NoError(t, err)
	assert.True(t, plan.DownPayment.Equal(plan.TotalValue))
	assert.Equal(t, "0", plan.InstallmentValue.String())
}

func TestConfirmFullPaymentCreatesLedgerEntry(t *testing.T) {
	f := newCheckoutFixture()
	open := f.open(t, decimal.NewFromInt(100))

	resp, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Maria Souza",
		BaseValue:        decimal.NewFromInt(500),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.NewFromInt(500),
		PaymentMethod:    string(model.MethodDinheiro),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SaleConfirmed, resp.Status)

	// Ledger entry linked to the sale, inside the open session; drawer
	// balance moved along.
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, model.TypeIncome, entry.Type)
	require.NotNil(t, entry.ReferenceID)
	require.NotNil(t, entry.SessionID)
	assert.Equal(t, open.ID, entry.SessionID.String())
	assert.Equal(t, "600", f.sessions.sessions[*entry.SessionID].CalculatedBalance.String())
}

func TestConfirmOverpaymentRejected(t *testing.T) {
	f := newCheckoutFixture()
	f.open(t, decimal.NewFromInt(100))

	_, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Maria Souza",
		BaseValue:        decimal.NewFromInt(500),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.NewFromInt(501),
		PaymentMethod:    string(model.MethodDinheiro),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.ledger.entries)
}

func TestConfirmRemainderRequiresDisposition(t *testing.T) {
	f := newCheckoutFixture()
	f.open(t, decimal.NewFromInt(100))

	req := dto.ConfirmSaleRequest{
		PatientName:      "João Lima",
		BaseValue:        decimal.NewFromInt(500),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.NewFromInt(300),
		PaymentMethod:    string(model.MethodPix),
	}

	// 200 left over and no policy → refused.
	_, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, req)
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	// Reschedule without a date → refused.
	policy := model.RemainderReschedule
	req.RemainderPolicy = &policy
	_, err = f.svc.Confirm(context.Background(), f.clinicID, f.userID, req)
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	// Reschedule with a past date → refused.
	past := "2020-01-01"
	req.RescheduleDate = &past
	_, err = f.svc.Confirm(context.Background(), f.clinicID, f.userID, req)
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	// Future date → the remainder becomes a pending installment.
	future := time.Now().AddDate(0, 0, 15).Format("2006-01-02")
	req.RescheduleDate = &future
	resp, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, req)
	require.NoError(t, err)
	require.Len(t, resp.Installments, 1)
	assert.Equal(t, "200", resp.Installments[0].Amount.String())
	assert.Equal(t, model.InstallmentPending, resp.Installments[0].Status)
}

func TestConfirmDiscountRemainderCreatesNoInstallment(t *testing.T) {
	f := newCheckoutFixture()
	f.open(t, decimal.NewFromInt(100))

	policy := model.RemainderDiscount
	resp, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Ana Dias",
		BaseValue:        decimal.NewFromInt(400),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.NewFromInt(350),
		PaymentMethod:    string(model.MethodDinheiro),
		RemainderPolicy:  &policy,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Installments)
	assert.Equal(t, "350", resp.AmountPaid.String())
}

func TestConfirmBoletoBuildsInstallmentSchedule(t *testing.T) {
	f := newCheckoutFixture()
	f.open(t, decimal.NewFromInt(100))

	resp, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Carlos Prado",
		BaseValue:        decimal.NewFromInt(1000),
		CreditTier:       "B",
		Rail:             model.RailBoleto,
		InstallmentCount: 10,
		AmountPaid:       decimal.NewFromInt(105), // the minimum down payment
		PaymentMethod:    string(model.MethodDinheiro),
	})
	require.NoError(t, err)
	require.Len(t, resp.Installments, 10)

	// Schedule sums to total − down.
	sum := decimal.Zero
	for _, ins := range resp.Installments {
		sum = sum.Add(ins.Amount)
	}
	assert.True(t, sum.Equal(resp.Plan.TotalValue.Sub(resp.Plan.DownPayment)),
		"installments sum %s, want %s", sum, resp.Plan.TotalValue.Sub(resp.Plan.DownPayment))

	// Due dates advance monthly, first one next month.
	first, err := time.Parse("2006-01-02", resp.Installments[0].DueDate)
	require.NoError(t, err)
	assert.True(t, first.After(time.Now()))
}

func TestConfirmWithoutSessionBlockedByPolicy(t *testing.T) {
	f := newCheckoutFixture()

	// No session open, force_cash_opening on by default: cash capture refused.
	_, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Sem Caixa",
		BaseValue:        decimal.NewFromInt(200),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.NewFromInt(200),
		PaymentMethod:    string(model.MethodDinheiro),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsPrecondition(err))
}

func TestConfirmZeroPaidSkipsLedger(t *testing.T) {
	f := newCheckoutFixture()

	policy := model.RemainderReschedule
	future := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	resp, err := f.svc.Confirm(context.Background(), f.clinicID, f.userID, dto.ConfirmSaleRequest{
		PatientName:      "Paga Depois",
		BaseValue:        decimal.NewFromInt(300),
		CreditTier:       "A",
		Rail:             model.RailSmart,
		InstallmentCount: 1,
		AmountPaid:       decimal.Zero,
		PaymentMethod:    string(model.MethodPix),
		RemainderPolicy:  &policy,
		RescheduleDate:   &future,
	})
	require.NoError(t, err)
	assert.Empty(t, f.ledger.entries)
	require.Len(t, resp.Installments, 1)
	assert.Equal(t, "300", resp.Installments[0].Amount.String())
}
