// Package stats recomputes a festival's financial snapshot from the
// contribution and expense ledgers. The snapshot on the festival record is
// a cache; these collections stay the source of truth.
package stats

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/festivalfund/festival-fund-go/models"
)

// ErrFestivalNotFound is returned by FestivalStore.OpeningBalance when the
// festival id resolves to nothing. Recompute swallows it (see below).
var ErrFestivalNotFound = errors.New("festival not found")

// Ledger exposes the aggregate queries Recompute needs over the
// contribution and expense collections.
type Ledger interface {
	// ContributionTotal sums amounts over contributions matching the
	// festival and status. With cashOnly set, only type=cash rows count;
	// otherwise every row counts, with a missing amount summing as 0.
	ContributionTotal(ctx context.Context, festivalID primitive.ObjectID, status string, cashOnly bool) (float64, error)
	// ExpenseTotal sums all expense amounts for the festival.
	ExpenseTotal(ctx context.Context, festivalID primitive.ObjectID) (float64, error)
	// ExpenseTotalsByCategory group-sums expense amounts by category.
	// Categories with no expenses are absent from the result.
	ExpenseTotalsByCategory(ctx context.Context, festivalID primitive.ObjectID) (map[string]float64, error)
}

// FestivalStore is the aggregator's narrow view of the festival registry.
type FestivalStore interface {
	// OpeningBalance reads the opening balance from the festival's stats
	// subdocument. Returns ErrFestivalNotFound for an unknown id.
	OpeningBalance(ctx context.Context, festivalID primitive.ObjectID) (float64, error)
	// ReplaceStats overwrites the festival's stats subdocument wholesale.
	// Writing to an unknown id is a no-op, never an insert.
	ReplaceStats(ctx context.Context, festivalID primitive.ObjectID, snapshot models.StatsSnapshot) error
}

type Aggregator struct {
	ledger    Ledger
	festivals FestivalStore
	log       *logrus.Logger
}

func NewAggregator(ledger Ledger, festivals FestivalStore, log *logrus.Logger) *Aggregator {
	return &Aggregator{ledger: ledger, festivals: festivals, log: log}
}

// Recompute rebuilds the festival's snapshot from the ledgers, persists it
// onto the festival record and returns it.
//
// A festival id that resolves to nothing does not fail the call: the
// opening balance degrades to 0, the persist is a no-op, and the computed
// numbers are still returned. The degenerate case is logged so it can be
// spotted, since a deleted or garbage id otherwise looks like a festival
// with empty books.
func (a *Aggregator) Recompute(ctx context.Context, festivalID primitive.ObjectID) (models.StatsSnapshot, error) {
	// The four aggregations are independent, so they run concurrently.
	var (
		totalCollected float64
		pendingAmount  float64
		totalExpenses  float64
		categoryTotals map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalCollected, err = a.ledger.ContributionTotal(gctx, festivalID, models.StatusDeposited, true)
		return err
	})
	g.Go(func() (err error) {
		pendingAmount, err = a.ledger.ContributionTotal(gctx, festivalID, models.StatusPending, false)
		return err
	})
	g.Go(func() (err error) {
		totalExpenses, err = a.ledger.ExpenseTotal(gctx, festivalID)
		return err
	})
	g.Go(func() (err error) {
		categoryTotals, err = a.ledger.ExpenseTotalsByCategory(gctx, festivalID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.StatsSnapshot{}, err
	}
	if categoryTotals == nil {
		categoryTotals = map[string]float64{}
	}

	opening, err := a.festivals.OpeningBalance(ctx, festivalID)
	if err != nil {
		if !errors.Is(err, ErrFestivalNotFound) {
			return models.StatsSnapshot{}, err
		}
		opening = 0
		if a.log != nil {
			a.log.WithField("festivalId", festivalID.Hex()).
				Warn("recomputing stats for unknown festival, opening balance defaults to 0")
		}
	}

	snapshot := models.StatsSnapshot{
		OpeningBalance: opening,
		TotalCollected: totalCollected,
		PendingAmount:  pendingAmount,
		TotalExpenses:  totalExpenses,
		CurrentBalance: CurrentBalance(opening, totalCollected, totalExpenses),
		CategoryTotals: categoryTotals,
	}

	if err := a.festivals.ReplaceStats(ctx, festivalID, snapshot); err != nil {
		return models.StatsSnapshot{}, err
	}
	return snapshot, nil
}

// CurrentBalance is opening + collected - expenses, rounded to 2 places.
// Pending amounts and item estimated values never enter the formula. The
// festival update endpoint reuses this for its cached-totals shortcut.
func CurrentBalance(opening, collected, expenses float64) float64 {
	balance := decimal.NewFromFloat(opening).
		Add(decimal.NewFromFloat(collected)).
		Sub(decimal.NewFromFloat(expenses))
	return balance.Round(2).InexactFloat64()
}
