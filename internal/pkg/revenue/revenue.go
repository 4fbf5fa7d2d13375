// Package revenue pulls charges from a connected account and reduces them to
// the windowed totals the metrics engine consumes.
package revenue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
)

const windowLength = 30 * 24 * time.Hour

// ErrFetch wraps every failure to read charges. Callers must not substitute
// zero revenue for it.
var ErrFetch = errors.New("revenue fetch failed")

type ChargeLister interface {
	ListCharges(ctx context.Context, accountID string, w payments.Window) ([]payments.Charge, error)
}

// Revenue is the reduced result of one fetch, in major currency units.
type Revenue struct {
	Previous   float64 `json:"previous_30d"`
	Current    float64 `json:"current_30d"`
	NewRevenue float64 `json:"new_revenue"`
	Churned    float64 `json:"churned"`
}

// Inputs combines the revenue with a monthly burn for metrics.Compute.
func (r Revenue) Inputs(burn float64) metrics.Inputs {
	return metrics.Inputs{
		Previous:   r.Previous,
		Current:    r.Current,
		NewRevenue: r.NewRevenue,
		Burn:       burn,
	}
}

// Windows returns the previous [now-60d, now-30d) and current [now-30d, now]
// ranges.
func Windows(now time.Time) (previous, current payments.Window) {
	mid := now.Add(-windowLength)
	previous = payments.Window{From: now.Add(-2 * windowLength), To: mid}
	current = payments.Window{From: mid, To: now, Closed: true}
	return previous, current
}

type Fetcher struct {
	client ChargeLister
	now    func() time.Time
}

func NewFetcher(client ChargeLister) *Fetcher {
	return &Fetcher{client: client, now: time.Now}
}

// Fetch lists both windows concurrently and reduces them.
func (f *Fetcher) Fetch(ctx context.Context, accountID string) (Revenue, error) {
	prevWindow, curWindow := Windows(f.now())

	var (
		wg              sync.WaitGroup
		prev, cur       []payments.Charge
		prevErr, curErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prev, prevErr = f.client.ListCharges(ctx, accountID, prevWindow)
	}()
	go func() {
		defer wg.Done()
		cur, curErr = f.client.ListCharges(ctx, accountID, curWindow)
	}()
	wg.Wait()

	if err := errors.Join(prevErr, curErr); err != nil {
		return Revenue{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return Reduce(prev, cur), nil
}

// Reduce sums succeeded, non-refunded charges per window and splits out new
// and churned revenue by customer.
func Reduce(prev, cur []payments.Charge) Revenue {
	prevCustomers := customers(prev)
	curCustomers := customers(cur)

	var r Revenue
	var prevCents, curCents, newCents, churnedCents int64
	for _, c := range prev {
		if !c.Counts() {
			continue
		}
		prevCents += c.Amount
		if !curCustomers[c.CustomerID] {
			churnedCents += c.Amount
		}
	}
	for _, c := range cur {
		if !c.Counts() {
			continue
		}
		curCents += c.Amount
		if !prevCustomers[c.CustomerID] {
			newCents += c.Amount
		}
	}

	r.Previous = float64(prevCents) / 100
	r.Current = float64(curCents) / 100
	r.NewRevenue = float64(newCents) / 100
	r.Churned = float64(churnedCents) / 100
	return r
}

// customers collects the customer ids of succeeded charges, refunded or not.
func customers(charges []payments.Charge) map[string]bool {
	out := make(map[string]bool, len(charges))
	for _, c := range charges {
		if c.Status == "succeeded" {
			out[c.CustomerID] = true
		}
	}
	return out
}
