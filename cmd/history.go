package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/auth"
	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	flags := new(deviceFlags)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the device-local QR history and sync it with the cloud",
	}
	historyCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file")

	historyCmd.AddCommand(
		newHistoryAddCmd(flags),
		newHistoryListCmd(flags),
		newHistoryClearCmd(flags),
		newHistorySyncCmd(flags),
	)
	return historyCmd
}

func newHistoryAddCmd(flags *deviceFlags) *cobra.Command {
	var (
		kind      string
		content   string
		timestamp int64
	)
	cmd := &cobra.Command{
		Use:   "add --type generated|scanned --content X [--timestamp ms]",
		Short: "Record a generated or scanned code",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseEntryKind(kind)
			if err != nil {
				return err
			}
			a, closeFn, err := openDevice(flags)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := a.HistoryService
			if k == domain.KindGenerated && !svc.AutoSave() {
				fmt.Fprintln(cmd.OutOrStdout(), "auto-save is disabled, generated code not recorded")
				return nil
			}
			entry, err := svc.Save(cmd.Context(), k, content, timestamp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s at %d\n", entry.Kind, entry.Timestamp)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&kind, "type", "t", string(domain.KindScanned), "entry type: generated | scanned")
	fs.StringVar(&content, "content", "", "encoded or decoded payload")
	fs.Int64Var(&timestamp, "timestamp", 0, "milliseconds since epoch, 0 means now")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newHistoryListCmd(flags *deviceFlags) *cobra.Command {
	var (
		filter string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list [--type all|generated|scanned]",
		Short: "List the local history, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := domain.ParseHistoryFilter(filter)
			if err != nil {
				return err
			}
			a, closeFn, err := openDevice(flags)
			if err != nil {
				return err
			}
			defer closeFn()

			log, err := a.HistoryService.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := codec.EncodeLog(log)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return printLog(cmd.OutOrStdout(), log)
		},
	}
	cmd.Flags().StringVarP(&filter, "type", "t", string(domain.FilterAll), "filter: all | generated | scanned")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON array")
	return cmd
}

func printLog(w io.Writer, log domain.HistoryLog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tCONTENT")
	for _, e := range log {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", time.UnixMilli(e.Timestamp).Format(time.DateTime), e.Kind, e.Content)
	}
	return tw.Flush()
}

func newHistoryClearCmd(flags *deviceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the local history (the cloud copy is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeFn, err := openDevice(flags)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := a.HistoryService.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local history cleared")
			return nil
		},
	}
}

func newHistorySyncCmd(flags *deviceFlags) *cobra.Command {
	var (
		uid    string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "sync --uid U [--token T] [--strict]",
		Short: "Sign in as U and merge the local history with the cloud document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeFn, err := openDevice(flags)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			if err := a.AuthWatcher.Handle(ctx, auth.SignedIn(uid)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: history sync failed: %v\n", err)
				if strict {
					return err
				}
				return nil
			}

			log, err := a.HistoryService.List(ctx, domain.FilterAll)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "history synced for %s: %d entries\n", uid, len(log))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&uid, "uid", "", "signed-in user id")
	fs.StringVar(&flags.token, "token", "", "bearer token for the cloud API, overrides remote.token")
	fs.BoolVar(&strict, "strict", false, "exit non-zero when the sync fails")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}
