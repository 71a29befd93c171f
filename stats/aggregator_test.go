package stats

import (
	"context"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/festivalfund/festival-fund-go/models"
)

// memoryStore backs the aggregator with plain slices so the arithmetic
// contract can be tested without a running Mongo.
type memoryStore struct {
	contributions []models.Contribution
	expenses      []models.Expense
	festivals     map[primitive.ObjectID]*models.Festival

	replaceCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{festivals: map[primitive.ObjectID]*models.Festival{}}
}

func (m *memoryStore) ContributionTotal(_ context.Context, festivalID primitive.ObjectID, status string, cashOnly bool) (float64, error) {
	var total float64
	for _, c := range m.contributions {
		if c.FestivalID != festivalID || c.Status != status {
			continue
		}
		if cashOnly && c.Type != models.TypeCash {
			continue
		}
		total += c.CashAmount()
	}
	return total, nil
}

func (m *memoryStore) ExpenseTotal(_ context.Context, festivalID primitive.ObjectID) (float64, error) {
	var total float64
	for _, e := range m.expenses {
		if e.FestivalID == festivalID {
			total += e.Amount
		}
	}
	return total, nil
}

func (m *memoryStore) ExpenseTotalsByCategory(_ context.Context, festivalID primitive.ObjectID) (map[string]float64, error) {
	totals := map[string]float64{}
	for _, e := range m.expenses {
		if e.FestivalID == festivalID {
			totals[e.Category] += e.Amount
		}
	}
	return totals, nil
}

func (m *memoryStore) OpeningBalance(_ context.Context, festivalID primitive.ObjectID) (float64, error) {
	f, ok := m.festivals[festivalID]
	if !ok {
		return 0, ErrFestivalNotFound
	}
	return f.Stats.OpeningBalance, nil
}

func (m *memoryStore) ReplaceStats(_ context.Context, festivalID primitive.ObjectID, snapshot models.StatsSnapshot) error {
	m.replaceCalls++
	if f, ok := m.festivals[festivalID]; ok {
		f.Stats = snapshot
	}
	return nil
}

func amount(v float64) *float64 { return &v }

func addFestival(store *memoryStore, opening float64) primitive.ObjectID {
	id := primitive.NewObjectID()
	store.festivals[id] = &models.Festival{
		ID:             id,
		OpeningBalance: opening,
		Stats:          models.StatsSnapshot{OpeningBalance: opening, CurrentBalance: opening, CategoryTotals: map[string]float64{}},
	}
	return id
}

func TestRecompute_Scenario(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 1000)

	store.contributions = []models.Contribution{
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(500)},
		{FestivalID: festivalID, Type: models.TypeItem, Status: models.StatusDeposited, ItemName: "Generator", EstimatedValue: amount(2000)},
	}
	store.expenses = []models.Expense{
		{FestivalID: festivalID, Category: models.CategorySound, Amount: 300},
	}

	agg := NewAggregator(store, store, nil)
	snap, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if snap.TotalCollected != 500 {
		t.Errorf("totalCollected = %v, want 500 (item contributions never count)", snap.TotalCollected)
	}
	if snap.PendingAmount != 0 {
		t.Errorf("pendingAmount = %v, want 0", snap.PendingAmount)
	}
	if snap.TotalExpenses != 300 {
		t.Errorf("totalExpenses = %v, want 300", snap.TotalExpenses)
	}
	if snap.CurrentBalance != 1200 {
		t.Errorf("currentBalance = %v, want 1200", snap.CurrentBalance)
	}
	want := map[string]float64{models.CategorySound: 300}
	if !reflect.DeepEqual(snap.CategoryTotals, want) {
		t.Errorf("categoryTotals = %v, want %v", snap.CategoryTotals, want)
	}

	// the snapshot must land on the festival record
	if got := store.festivals[festivalID].Stats; !reflect.DeepEqual(got, snap) {
		t.Errorf("persisted stats = %v, want %v", got, snap)
	}
}

func TestRecompute_CollectedSubset(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 0)

	store.contributions = []models.Contribution{
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(100)},
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(250)},
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusPending, Amount: amount(75)},
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusCancelled, Amount: amount(999)},
		{FestivalID: festivalID, Type: models.TypeItem, Status: models.StatusDeposited, EstimatedValue: amount(5000)},
		{FestivalID: primitive.NewObjectID(), Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(400)},
	}

	agg := NewAggregator(store, store, nil)
	snap, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if snap.TotalCollected != 350 {
		t.Errorf("totalCollected = %v, want 350 (only cash+deposited of this festival)", snap.TotalCollected)
	}
	if snap.PendingAmount != 75 {
		t.Errorf("pendingAmount = %v, want 75", snap.PendingAmount)
	}
}

func TestRecompute_PendingIgnoresType(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 0)

	// pending sums across types; an item row with no amount adds 0
	store.contributions = []models.Contribution{
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusPending, Amount: amount(120)},
		{FestivalID: festivalID, Type: models.TypeItem, Status: models.StatusPending, ItemName: "Rice", EstimatedValue: amount(900)},
	}

	agg := NewAggregator(store, store, nil)
	snap, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if snap.PendingAmount != 120 {
		t.Errorf("pendingAmount = %v, want 120", snap.PendingAmount)
	}
	if snap.CurrentBalance != 0 {
		t.Errorf("currentBalance = %v, want 0 (pending never enters the balance)", snap.CurrentBalance)
	}
}

func TestRecompute_CategoryTotalsPartitionExpenses(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 0)

	store.expenses = []models.Expense{
		{FestivalID: festivalID, Category: models.CategorySound, Amount: 300},
		{FestivalID: festivalID, Category: models.CategorySound, Amount: 150.50},
		{FestivalID: festivalID, Category: models.CategoryDecoration, Amount: 99.50},
		{FestivalID: festivalID, Category: models.CategoryMahaprasad, Amount: 1200},
	}

	agg := NewAggregator(store, store, nil)
	snap, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if snap.TotalExpenses != 1750 {
		t.Errorf("totalExpenses = %v, want 1750", snap.TotalExpenses)
	}
	var partition float64
	for _, v := range snap.CategoryTotals {
		partition += v
	}
	if partition != snap.TotalExpenses {
		t.Errorf("sum of categoryTotals = %v, want totalExpenses %v", partition, snap.TotalExpenses)
	}
	if _, ok := snap.CategoryTotals[models.CategoryMandap]; ok {
		t.Error("categoryTotals must not contain zero-valued entries for unused categories")
	}
}

func TestRecompute_EmptyCategoryTotalsAfterLastExpenseDeleted(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 500)

	store.expenses = []models.Expense{
		{FestivalID: festivalID, Category: models.CategorySound, Amount: 300},
	}

	agg := NewAggregator(store, store, nil)
	if _, err := agg.Recompute(context.Background(), festivalID); err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	// delete the only expense, recompute
	store.expenses = nil
	snap, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("Recompute after delete failed: %v", err)
	}

	if snap.TotalExpenses != 0 {
		t.Errorf("totalExpenses = %v, want 0", snap.TotalExpenses)
	}
	if snap.CategoryTotals == nil {
		t.Fatal("categoryTotals must be an empty map, not nil")
	}
	if len(snap.CategoryTotals) != 0 {
		t.Errorf("categoryTotals = %v, want empty map (absent keys, not zeros)", snap.CategoryTotals)
	}
	if snap.CurrentBalance != 500 {
		t.Errorf("currentBalance = %v, want 500", snap.CurrentBalance)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	store := newMemoryStore()
	festivalID := addFestival(store, 1000)

	store.contributions = []models.Contribution{
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(500.25)},
		{FestivalID: festivalID, Type: models.TypeCash, Status: models.StatusPending, Amount: amount(40)},
	}
	store.expenses = []models.Expense{
		{FestivalID: festivalID, Category: models.CategoryOther, Amount: 199.75},
	}

	agg := NewAggregator(store, store, nil)
	first, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("first Recompute failed: %v", err)
	}
	second, err := agg.Recompute(context.Background(), festivalID)
	if err != nil {
		t.Fatalf("second Recompute failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recompute not idempotent: first %v, second %v", first, second)
	}
}

func TestRecompute_UnknownFestival(t *testing.T) {
	store := newMemoryStore()
	missing := primitive.NewObjectID()

	store.contributions = []models.Contribution{
		{FestivalID: missing, Type: models.TypeCash, Status: models.StatusDeposited, Amount: amount(500)},
	}

	agg := NewAggregator(store, store, nil)
	snap, err := agg.Recompute(context.Background(), missing)
	if err != nil {
		t.Fatalf("Recompute must not fail for an unknown festival: %v", err)
	}

	if snap.OpeningBalance != 0 {
		t.Errorf("openingBalance = %v, want 0", snap.OpeningBalance)
	}
	if snap.TotalCollected != 500 {
		t.Errorf("totalCollected = %v, want 500", snap.TotalCollected)
	}
	if snap.CurrentBalance != 500 {
		t.Errorf("currentBalance = %v, want 500", snap.CurrentBalance)
	}
	if len(store.festivals) != 0 {
		t.Error("recompute must not create a festival record as a side effect")
	}
	if store.replaceCalls != 1 {
		t.Errorf("replaceCalls = %d, want 1 (write attempted, lands nowhere)", store.replaceCalls)
	}
}

func TestCurrentBalance(t *testing.T) {
	cases := []struct {
		name                         string
		opening, collected, expenses float64
		want                         float64
	}{
		{"scenario", 1000, 500, 300, 1200},
		{"opening balance shortcut", 1500, 500, 300, 1700},
		{"all zero", 0, 0, 0, 0},
		{"negative balance", 100, 0, 250, -150},
		{"fractional rounding", 10.10, 0.20, 0.10, 10.20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentBalance(tc.opening, tc.collected, tc.expenses); got != tc.want {
				t.Errorf("CurrentBalance(%v, %v, %v) = %v, want %v", tc.opening, tc.collected, tc.expenses, got, tc.want)
			}
		})
	}
}
