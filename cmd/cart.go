package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/storefront"
	"github.com/iksnae/genie/internal/surface"
	"github.com/spf13/cobra"
)

var (
	addAuthor string
	addPrice  float64
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage your storefront cart",
	Long: `Add, remove, list and buy the books in your storefront cart.

Each command prints the same status notification the storefront shows and
exits non-zero when the store rejects the request.`,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a book to the cart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := storefront.AddRequest{
			Title:  strings.Join(args, " "),
			Author: addAuthor,
		}
		if cmd.Flags().Changed("price") {
			p := internal.AmountFromFloat(addPrice)
			req.Price = &p
		}
		return withCart(cmd, func(app *storefront.App) error {
			return app.Cart.Add(cmd.Context(), req)
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a cart row by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(app *storefront.App) error {
			return app.Cart.Remove(cmd.Context(), args[0])
		})
	},
}

var cartBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Place an order for everything in the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(app *storefront.App) error {
			return app.Cart.Buy(cmd.Context())
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove everything from the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(app *storefront.App) error {
			return app.Cart.Clear(cmd.Context())
		})
	},
}

var cartCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of items in the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(storefront.WithSpeech(nil, nil))
		if err != nil {
			return err
		}
		defer app.Close()

		app.Cart.RefreshCount(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), app.Document.Snapshot().Count)
		return nil
	},
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the cart and its total",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(storefront.WithSpeech(nil, nil))
		if err != nil {
			return err
		}
		defer app.Close()

		err = internal.ShowProgress(cmd.Context(), "Loading cart", func() error {
			return app.Cart.Sync(cmd.Context())
		})
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), surface.RenderCart(app.Document.Snapshot()))
		return nil
	},
}

// withCart runs one cart operation, prints the resulting notification and
// waits for any navigation or reload it scheduled
func withCart(cmd *cobra.Command, op func(app *storefront.App) error) error {
	app, err := openApp(storefront.WithSpeech(nil, nil))
	if err != nil {
		return err
	}
	defer app.Close()

	opErr := op(app)
	var verr *internal.ValidationError
	if errors.As(opErr, &verr) {
		return opErr
	}

	out := cmd.OutOrStdout()
	printToast(out, app)

	if err := app.Cart.WaitContext(cmd.Context()); err != nil {
		return err
	}
	view := app.Document.Snapshot()
	if view.Location != "" {
		fmt.Fprintf(out, "→ Log in at %s%s\n", strings.TrimSuffix(app.Remote.BaseURL(), "/"), view.Location)
	}
	if opErr == nil {
		fmt.Fprintf(out, "🛒 %d\n", view.Count)
	}
	return reported(opErr)
}

func printToast(w io.Writer, app *storefront.App) {
	if note, ok := app.Notifier.Current(); ok {
		internal.PrintNotification(w, note)
	}
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartBuyCmd, cartClearCmd, cartCountCmd, cartListCmd)

	cartAddCmd.Flags().StringVar(&addAuthor, "author", "", "Book author")
	cartAddCmd.Flags().Float64Var(&addPrice, "price", 0, "Book price")
}
