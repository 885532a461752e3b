package workflowclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductDraftValidate(t *testing.T) {
	draft := ProductDraft{
		Title:     "  Mesa de roble ",
		UnitPrice: "1500.50",
		Quantity:  "2",
		Deposit:   "",
	}
	in, err := draft.Validate()
	require.NoError(t, err)
	require.Equal(t, "Mesa de roble", in.Title)
	require.NotNil(t, in.UnitPrice)
	require.Equal(t, 1500.50, *in.UnitPrice)
	require.NotNil(t, in.Quantity)
	require.EqualValues(t, 2, *in.Quantity)
	require.Nil(t, in.Amount)

	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.NotContains(t, string(data), "amount")
}

func TestProductDraftValidateRejects(t *testing.T) {
	valid := ProductDraft{Title: "Mesa", UnitPrice: "100"}

	cases := []struct {
		name  string
		draft ProductDraft
		field string
	}{
		{"empty title", ProductDraft{UnitPrice: "100"}, "title"},
		{"blank title", ProductDraft{Title: "   ", UnitPrice: "100"}, "title"},
		{"missing price", ProductDraft{Title: "Mesa"}, "unitPrice"},
		{"zero price", ProductDraft{Title: "Mesa", UnitPrice: "0"}, "unitPrice"},
		{"non-numeric price", ProductDraft{Title: "Mesa", UnitPrice: "cien"}, "unitPrice"},
		{"bad quantity", func() ProductDraft { d := valid; d.Quantity = "dos"; return d }(), "quantity"},
		{"negative quantity", func() ProductDraft { d := valid; d.Quantity = "-1"; return d }(), "quantity"},
		{"negative deposit", func() ProductDraft { d := valid; d.Deposit = "-5"; return d }(), "deposit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.draft.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCostDraftValidate(t *testing.T) {
	in, err := CostDraft{Amount: "1200", Reason: "Alquiler", Frequency: FrequencyMonthly}.Validate()
	require.NoError(t, err)
	require.Equal(t, 1200.0, *in.Amount)
	require.Equal(t, FrequencyMonthly, in.Frequency)

	cases := []struct {
		name  string
		draft CostDraft
		field string
	}{
		{"empty amount", CostDraft{Reason: "Alquiler"}, "amount"},
		{"zero amount", CostDraft{Amount: "0", Reason: "Alquiler"}, "amount"},
		{"non-numeric amount", CostDraft{Amount: "mil", Reason: "Alquiler"}, "amount"},
		{"missing reason", CostDraft{Amount: "10"}, "reason"},
		{"unknown frequency", CostDraft{Amount: "10", Reason: "x", Frequency: "DAILY"}, "frequency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.draft.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPaymentDraftValidate(t *testing.T) {
	in, err := PaymentDraft{OrderID: 3, Amount: "250", Kind: KindDeposit}.Validate()
	require.NoError(t, err)
	require.EqualValues(t, 3, in.OrderID)
	require.Equal(t, 250.0, *in.Amount)

	_, err = PaymentDraft{Amount: "250"}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "orderId", verr.Field)

	_, err = PaymentDraft{OrderID: 3, Amount: "250", Kind: "REFUND"}.Validate()
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "kind", verr.Field)
}

func TestSubmitCostBlockedBeforeRequest(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1,"amount":1200,"reason":"Alquiler"}`))
	})

	_, err := client.SubmitCost(context.Background(), CostDraft{Amount: "", Reason: "Alquiler"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "amount", verr.Field)
	require.Zero(t, requests.Load())

	cost, err := client.SubmitCost(context.Background(), CostDraft{Amount: "1200", Reason: "Alquiler"})
	require.NoError(t, err)
	require.EqualValues(t, 1, requests.Load())
	require.Equal(t, 1200.0, cost.Amount)
}

func TestSubmitOrderSendsValidatedPayload(t *testing.T) {
	var requests atomic.Int32
	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"title":"Mesa"}`))
	})

	_, err := client.SubmitOrder(context.Background(), ProductDraft{Title: "", UnitPrice: "100"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Zero(t, requests.Load())

	order, err := client.SubmitOrder(context.Background(), ProductDraft{
		Title:     "Mesa",
		UnitPrice: "100",
		Deposit:   "40",
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, order.ID)
	require.Equal(t, 100.0, got["unitPrice"])
	require.Equal(t, 40.0, got["amount"])
	_, hasQuantity := got["quantity"]
	require.False(t, hasQuantity)
}

func TestTypes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/types", r.URL.Path)
		w.Write([]byte(`["MESA","SILLA","OTRO"]`))
	})

	types, err := client.Types(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"MESA", "SILLA", "OTRO"}, types)
}
