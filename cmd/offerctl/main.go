package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/app"
	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/usecase"
	"github.com/bookedbeauty/welcome-offer-gate/pkg/logger"
	"github.com/spf13/cobra"
)

// errNotEligible makes the process exit with status 1 without printing an error.
type errNotEligible struct{}

func (errNotEligible) Error() string { return "not eligible" }

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if _, ok := err.(errNotEligible); !ok {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	at      string
	verbose bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "offerctl",
		Short:         "Inspect welcome offer eligibility for a CRM contact",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log resolver and evaluator diagnostics to stderr")

	check := &cobra.Command{
		Use:   "check <contactId>",
		Short: "Resolve a contact and print the eligibility verdict with its field resolution trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.at != "" {
				at, err := parseAt(opts.at, a.Config.Offer.Location)
				if err != nil {
					return err
				}
				a.ValidateOffer.Now = func() time.Time { return at }
			}

			res, err := a.ValidateOffer.Execute(cmd.Context(), usecase.ValidateOfferInput{ContactID: args[0]})
			if err != nil {
				return err
			}
			if err := printJSON(out, res.Verdict); err != nil {
				return err
			}
			if !res.Verdict.IsValid {
				return errNotEligible{}
			}
			return nil
		},
	}
	check.Flags().StringVar(&opts.at, "at", "", "evaluate as of this instant (RFC3339 or YYYY-MM-DD)")

	status := &cobra.Command{
		Use:   "status <contactId>",
		Short: "Print the offer-status answer for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.CheckOfferStatus.Execute(cmd.Context(), usecase.CheckOfferStatusInput{ContactID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(out, st)
		},
	}

	rejoin := &cobra.Command{
		Use:   "rejoin <contactId>",
		Short: "Print the opt-in rejoin decision for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.CheckRejoin.Execute(cmd.Context(), usecase.CheckRejoinInput{ContactID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(out, d)
		},
	}

	root.AddCommand(check, status, rejoin)
	root.SetContext(context.Background())
	return root
}

func build(opts *options) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Auditing is for the served endpoints only.
	cfg.Queue.URL = ""
	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "text"
	if opts.verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "error"
	}
	return app.New(cfg, logger.New(cfg.Logging)), nil
}

func parseAt(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("--at must be RFC3339 or YYYY-MM-DD, got %q", raw)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
