package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cartclash/internal/model"
	"github.com/sells-group/cartclash/internal/presenter"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

var (
	watchProduct int64
	watchSource  string
	watchAction  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Add or remove a source listing on your watchlist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}
		action := model.Action(watchAction)
		if !action.Valid() {
			return eris.Errorf("invalid action %q (must be add or remove)", watchAction)
		}
		client, token := newAPIClient(cfg.Client)
		if token == "" {
			return eris.New("a session token is required (--token or CARTCLASH_CLIENT_SESSION_TOKEN)")
		}
		return runWatch(cmd.Context(), client, watchProduct, watchSource, action, cmd.OutOrStdout())
	},
}

// runWatch puts the listing's button in the state from which a toggle sends
// action, performs the toggle and prints the label the server confirmed.
func runWatch(ctx context.Context, client priceapi.Client, productID int64, source string, action model.Action, w io.Writer) error {
	card := presenter.NewCard(productID, client, true)
	if err := card.Compare(ctx); err != nil {
		return eris.Wrap(err, "watch")
	}
	if action == model.ActionRemove {
		card.SeedWatched(source)
	}

	state, err := card.Toggle(ctx, source)
	if err != nil {
		if eris.Is(err, presenter.ErrNoButton) {
			return eris.Errorf("watch: product %d has no listing for source %q", productID, source)
		}
		return eris.Wrap(err, "watch")
	}

	_, err = fmt.Fprintf(w, "%s %s: [%s]\n", source, state, state.Label())
	return err
}

func init() {
	watchCmd.Flags().StringVar(&clientToken, "token", "", "session token (default from config)")
	watchCmd.Flags().Int64Var(&watchProduct, "product", 0, "product id (required)")
	watchCmd.Flags().StringVar(&watchSource, "source", "", "source name, e.g. GeM (required)")
	watchCmd.Flags().StringVar(&watchAction, "action", "add", "add or remove")
	_ = watchCmd.MarkFlagRequired("product")
	_ = watchCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(watchCmd)
}
