package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/spf13/cobra"
)

var errNotTracked = errors.New("order is not tracked")

func newAddCmd(e func() *env) *cobra.Command {
	var label, carrier string
	cmd := &cobra.Command{
		Use:   "add TRACKING_NUMBER",
		Short: "Start tracking a parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := e().store.Add(cmd.Context(), args[0], label, carrier)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintln(cmd.OutOrStdout(), "added")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "already tracked")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "display name")
	cmd.Flags().StringVar(&carrier, "carrier", "", "force a carrier slug instead of auto-detection")
	return cmd
}

func newListCmd(e func() *env) *cobra.Command {
	var search, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked parcels from storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := e().store.Load(cmd.Context())
			return printOrders(cmd.OutOrStdout(), orders.Filter(all, search, status))
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match tracking number or label")
	cmd.Flags().StringVar(&status, "status", "", "transit, delivered or unknown")
	return cmd
}

func newEditCmd(e func() *env) *cobra.Command {
	var label, carrier string
	cmd := &cobra.Command{
		Use:   "edit TRACKING_NUMBER",
		Short: "Change the label and forced carrier of a parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := e().store.UpdateLabel(cmd.Context(), args[0], label, carrier)
			if err != nil {
				return err
			}
			if !found {
				return errNotTracked
			}
			fmt.Fprintln(cmd.OutOrStdout(), "updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "display name")
	cmd.Flags().StringVar(&carrier, "carrier", "", "forced carrier slug, empty for auto-detection")
	return cmd
}

func newRemoveCmd(e func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TRACKING_NUMBER",
		Short: "Stop tracking one parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := e().store.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return errNotTracked
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func newClearCmd(e func() *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every tracked parcel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			if err := e().store.RemoveAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newRefreshCmd(e func() *env) *cobra.Command {
	var lang, tz string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh status for every parcel and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := e()
			out, err := env.store.Refresh(cmd.Context(), orders.ResolveLocale(models.Locale{Language: lang, Timezone: tz}, env.locale))
			if err != nil {
				return err
			}
			return printOrders(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "en or fr")
	cmd.Flags().StringVar(&tz, "timezone", "", "IANA time zone")
	return cmd
}

func newCountsCmd(e func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show the number of parcels per status tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := orders.Counts(e().store.Load(cmd.Context()))
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, b := range orders.Buckets {
				fmt.Fprintf(tw, "%s\t%d\n", b, counts[b])
			}
			return tw.Flush()
		},
	}
}

func newTrackCmd(e func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "track TRACKING_NUMBER",
		Short: "Show the full tracking history of a parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := e()
			d, err := env.store.Detail(cmd.Context(), args[0], env.locale)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", d.Order.DisplayLabel(), d.Order.TrackingNumber)
			fmt.Fprintf(w, "status:   %s %s\n", d.Order.Status, d.Order.Sublabel)
			fmt.Fprintf(w, "carrier:  %s\n", d.Order.Carrier)
			fmt.Fprintf(w, "expected: %s\n", d.Order.EstimatedDeliveryDate)
			fmt.Fprintf(w, "progress: %.0f%%\n", d.Progress*100)
			for _, s := range d.Data.Steps {
				fmt.Fprintf(w, "  %s  %s\n", s.HumanReadableTime, s.HumanReadableStatus)
				for _, l := range s.Lines {
					fmt.Fprintf(w, "      %s\n", l.LineOriginal)
				}
			}
			return nil
		},
	}
}

func newCarriersCmd(e func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "carriers",
		Short: "List carriers that can be forced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := e()
			if env.carriers == nil {
				return nil
			}
			cs, err := env.carriers.ListCarriers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range cs {
				fmt.Fprintf(tw, "%s\t%s\n", c.Slug, c.Name)
			}
			return tw.Flush()
		},
	}
}

func printOrders(w io.Writer, list []models.Order) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACKING\tLABEL\tSTATUS\tCARRIER\tETA")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.TrackingNumber, o.DisplayLabel(), o.Status, o.Carrier, o.EstimatedDeliveryDate)
	}
	return tw.Flush()
}
