package ledger

import (
	"math"
	"testing"
	"time"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name            string
		totals          Totals
		wantCategory    Category
		wantOutstanding float64
		wantPaidBack    float64
	}{
		{
			name:            "positive net owed to user",
			totals:          Totals{OwesMe: 50, PaidBackToMe: 20},
			wantCategory:    CategoryOwesMe,
			wantOutstanding: 30,
			wantPaidBack:    20,
		},
		{
			name:            "positive net owed by user",
			totals:          Totals{IOwe: 40, PaidBackByMe: 15},
			wantCategory:    CategoryIOwe,
			wantOutstanding: 25,
			wantPaidBack:    15,
		},
		{
			name:         "fully repaid is neutral",
			totals:       Totals{OwesMe: 50, PaidBackToMe: 50},
			wantCategory: CategoryNeutral,
		},
		{
			name:         "all zero is neutral",
			totals:       Totals{},
			wantCategory: CategoryNeutral,
		},
		{
			name:         "overpaid nets negative, still neutral",
			totals:       Totals{OwesMe: 10, PaidBackToMe: 15},
			wantCategory: CategoryNeutral,
		},
		{
			name:            "owes_me wins when both directions outstanding",
			totals:          Totals{OwesMe: 30, IOwe: 20},
			wantCategory:    CategoryOwesMe,
			wantOutstanding: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, outstanding, paidBack := Categorize(tt.totals)
			if category != tt.wantCategory {
				t.Errorf("category = %v, want %v", category, tt.wantCategory)
			}
			if math.Abs(outstanding-tt.wantOutstanding) > 0.001 {
				t.Errorf("outstanding = %v, want %v", outstanding, tt.wantOutstanding)
			}
			if math.Abs(paidBack-tt.wantPaidBack) > 0.001 {
				t.Errorf("paidBack = %v, want %v", paidBack, tt.wantPaidBack)
			}
		})
	}
}

// Every totals value must land in exactly one category.
func TestCategorizeExhaustive(t *testing.T) {
	values := []float64{-10, 0, 5, 20}
	for _, owesMe := range values {
		for _, iOwe := range values {
			for _, paidToMe := range values {
				for _, paidByMe := range values {
					totals := Totals{OwesMe: owesMe, IOwe: iOwe, PaidBackToMe: paidToMe, PaidBackByMe: paidByMe}
					category, _, _ := Categorize(totals)
					switch category {
					case CategoryOwesMe:
						if totals.NetOwesMe() <= 0 {
							t.Errorf("Categorize(%+v) = owes_me with net %v", totals, totals.NetOwesMe())
						}
					case CategoryIOwe:
						if totals.NetIOwe() <= 0 {
							t.Errorf("Categorize(%+v) = i_owe with net %v", totals, totals.NetIOwe())
						}
					case CategoryNeutral:
						if totals.NetOwesMe() > 0 {
							t.Errorf("Categorize(%+v) = neutral with positive NetOwesMe", totals)
						}
					default:
						t.Errorf("Categorize(%+v) returned unknown category %q", totals, category)
					}
				}
			}
		}
	}
}

func TestApplyAggregatePayment(t *testing.T) {
	tests := []struct {
		name         string
		totals       Totals
		amount       float64
		wantPaidBack float64
	}{
		{
			name:         "partial payment",
			totals:       Totals{OwesMe: 100, PaidBackToMe: 20},
			amount:       30,
			wantPaidBack: 50,
		},
		{
			name:         "exact payoff",
			totals:       Totals{OwesMe: 100, PaidBackToMe: 60},
			amount:       40,
			wantPaidBack: 100,
		},
		{
			name:         "excess clamped to owed total",
			totals:       Totals{OwesMe: 100, PaidBackToMe: 90},
			amount:       50,
			wantPaidBack: 100,
		},
		{
			name:         "payment with nothing owed stays zero",
			totals:       Totals{},
			amount:       25,
			wantPaidBack: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyAggregatePayment(tt.totals, tt.amount)
			if math.Abs(got.PaidBackToMe-tt.wantPaidBack) > 0.001 {
				t.Errorf("PaidBackToMe = %v, want %v", got.PaidBackToMe, tt.wantPaidBack)
			}
			// Only the repaid counter moves.
			if got.OwesMe != tt.totals.OwesMe || got.IOwe != tt.totals.IOwe || got.PaidBackByMe != tt.totals.PaidBackByMe {
				t.Errorf("unexpected field change: %+v", got)
			}
		})
	}
}

func TestAllocatePayment(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		entries []Entry
		amount  float64
		wantErr error
		want    []Allocation
	}{
		{
			name: "partial payment against single record",
			entries: []Entry{
				{ID: "d1", Amount: 10, CreatedAt: base},
			},
			amount: 4,
			want:   []Allocation{{ID: "d1", Applied: 4, NewPaidBack: 4}},
		},
		{
			name: "oldest record drained before newer",
			entries: []Entry{
				{ID: "new", Amount: 5, CreatedAt: base.Add(time.Hour)},
				{ID: "old", Amount: 5, CreatedAt: base},
			},
			amount: 7,
			want: []Allocation{
				{ID: "old", Applied: 5, NewPaidBack: 5},
				{ID: "new", Applied: 2, NewPaidBack: 2},
			},
		},
		{
			name: "partially paid record only absorbs its remainder",
			entries: []Entry{
				{ID: "d1", Amount: 10, PaidBack: 8, CreatedAt: base},
				{ID: "d2", Amount: 10, CreatedAt: base.Add(time.Minute)},
			},
			amount: 6,
			want: []Allocation{
				{ID: "d1", Applied: 2, NewPaidBack: 10},
				{ID: "d2", Applied: 4, NewPaidBack: 4},
			},
		},
		{
			name: "fully paid records are skipped",
			entries: []Entry{
				{ID: "done", Amount: 5, PaidBack: 5, CreatedAt: base},
				{ID: "open", Amount: 5, CreatedAt: base.Add(time.Minute)},
			},
			amount: 3,
			want:   []Allocation{{ID: "open", Applied: 3, NewPaidBack: 3}},
		},
		{
			name: "equal timestamps break ties by id",
			entries: []Entry{
				{ID: "b", Amount: 5, CreatedAt: base},
				{ID: "a", Amount: 5, CreatedAt: base},
			},
			amount: 6,
			want: []Allocation{
				{ID: "a", Applied: 5, NewPaidBack: 5},
				{ID: "b", Applied: 1, NewPaidBack: 1},
			},
		},
		{
			name: "payment exceeding remaining debt is rejected",
			entries: []Entry{
				{ID: "d1", Amount: 10, PaidBack: 4, CreatedAt: base},
			},
			amount:  7,
			wantErr: ErrPaymentExceedsDebt,
		},
		{
			name:    "any payment against empty ledger is rejected",
			entries: nil,
			amount:  1,
			wantErr: ErrPaymentExceedsDebt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllocatePayment(tt.entries, tt.amount)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("expected no allocations on error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("AllocatePayment failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("allocations = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].ID != tt.want[i].ID {
					t.Errorf("allocation %d id = %s, want %s", i, got[i].ID, tt.want[i].ID)
				}
				if math.Abs(got[i].Applied-tt.want[i].Applied) > 0.001 {
					t.Errorf("allocation %d applied = %v, want %v", i, got[i].Applied, tt.want[i].Applied)
				}
				if math.Abs(got[i].NewPaidBack-tt.want[i].NewPaidBack) > 0.001 {
					t.Errorf("allocation %d newPaidBack = %v, want %v", i, got[i].NewPaidBack, tt.want[i].NewPaidBack)
				}
			}
		})
	}
}

func TestAllocatePaymentDoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "b", Amount: 5, CreatedAt: base.Add(time.Hour)},
		{ID: "a", Amount: 5, CreatedAt: base},
	}

	if _, err := AllocatePayment(entries, 7); err != nil {
		t.Fatalf("AllocatePayment failed: %v", err)
	}

	if entries[0].ID != "b" || entries[1].ID != "a" {
		t.Errorf("input slice reordered: %v", entries)
	}
	if entries[0].PaidBack != 0 || entries[1].PaidBack != 0 {
		t.Errorf("input entries mutated: %v", entries)
	}
}

func TestCategorizeNet(t *testing.T) {
	tests := []struct {
		name            string
		owedToMe, iOwe  float64
		wantCategory    Category
		wantOutstanding float64
	}{
		{"they owe", 12.5, 0, CategoryOwesMe, 12.5},
		{"viewer owes", 0, 8, CategoryIOwe, 8},
		{"both zero", 0, 0, CategoryNeutral, 0},
		{"owes_me precedence", 10, 10, CategoryOwesMe, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, outstanding := CategorizeNet(tt.owedToMe, tt.iOwe)
			if category != tt.wantCategory {
				t.Errorf("category = %v, want %v", category, tt.wantCategory)
			}
			if math.Abs(outstanding-tt.wantOutstanding) > 0.001 {
				t.Errorf("outstanding = %v, want %v", outstanding, tt.wantOutstanding)
			}
		})
	}
}
