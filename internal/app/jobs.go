package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// RunRadarOnce executes a single deals-radar batch and prints the summary.
func (a *App) RunRadarOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot run deals radar")
	}
	if closeStore != nil {
		defer closeStore()
	}

	announcer, closeAnnouncer := a.newAnnouncer()
	if closeAnnouncer != nil {
		defer closeAnnouncer()
	}

	summary, err := a.newService(store, announcer).RunDealsRadar(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "deals radar: %d drops, %d created, %dms\n",
		summary.Drops, summary.Created, summary.Elapsed.Milliseconds())
	return nil
}

// RunTrendsOnce executes a single trend-finder batch and prints the summary.
func (a *App) RunTrendsOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot run trend finder")
	}
	if closeStore != nil {
		defer closeStore()
	}

	summary, err := a.newService(store, nil).RunTrendFinder(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "trend finder: %d analyzed, %d updated, top score %d, %dms\n",
		summary.Analyzed, summary.Updated, summary.TopScore, summary.Elapsed.Milliseconds())
	return nil
}

// RunWatchOnce executes a single price-watch ingest batch and prints the summary.
func (a *App) RunWatchOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot run price watch")
	}
	if closeStore != nil {
		defer closeStore()
	}

	summary, err := a.newService(store, nil).RunPriceWatch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "price watch: %d fetched, %d appended, %dms\n",
		summary.Fetched, summary.Appended, summary.Elapsed.Milliseconds())
	return nil
}
