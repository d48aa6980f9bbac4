package main

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cartclash/internal/presenter"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

var compareConcurrency int

var compareCmd = &cobra.Command{
	Use:   "compare <product-id>...",
	Short: "Compare current prices across sources for one or more products",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}
		ids, err := parseProductIDs(args)
		if err != nil {
			return err
		}
		client, token := newAPIClient(cfg.Client)
		return runCompare(cmd.Context(), client, ids, token != "", compareConcurrency, cmd.OutOrStdout())
	},
}

func parseProductIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, eris.Errorf("invalid product id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// runCompare loads one card per product concurrently and renders them in
// argument order. A card that fails to load renders its error; it does not
// fail the others.
func runCompare(ctx context.Context, client priceapi.Client, ids []int64, loggedIn bool, concurrency int, w io.Writer) error {
	log := zap.L().With(zap.String("component", "compare"))

	names := productNames(ctx, client)
	watched := map[int64][]string{}
	if loggedIn {
		entries, err := client.Watchlist(ctx)
		if err != nil {
			log.Warn("compare: watchlist unavailable, buttons start unwatched", zap.Error(err))
		}
		for _, e := range entries {
			watched[e.ProductID] = append(watched[e.ProductID], e.Source)
		}
	}

	cards := make([]*presenter.Card, len(ids))
	for i, id := range ids {
		cards[i] = presenter.NewCard(id, client, loggedIn)
		cards[i].SeedWatched(watched[id]...)
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, card := range cards {
		g.Go(func() error {
			if err := card.Compare(gctx); err != nil {
				log.Debug("compare: card failed to load", zap.Int64("product_id", card.ProductID()), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "compare")
	}

	for _, card := range cards {
		if err := card.View().Render(w, names[card.ProductID()]); err != nil {
			return eris.Wrap(err, "compare: render")
		}
	}
	return nil
}

// productNames returns display titles keyed by id. Failure is not fatal;
// cards fall back to "Product <id>".
func productNames(ctx context.Context, client priceapi.Client) map[int64]string {
	names := map[int64]string{}
	products, err := client.Products(ctx, 100)
	if err != nil {
		zap.L().Debug("compare: product names unavailable", zap.Error(err))
		return names
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names
}

func init() {
	compareCmd.Flags().StringVar(&clientToken, "token", "", "session token (default from config)")
	compareCmd.Flags().IntVar(&compareConcurrency, "concurrency", 4, "cards loaded in parallel")
	rootCmd.AddCommand(compareCmd)
}
