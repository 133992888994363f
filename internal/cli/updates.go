package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
)

func (a *app) updatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Inspect the update queue of an index",
	}

	list := &cobra.Command{
		Use:   "list <uid>",
		Short: "List every update of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sts, err := a.client.Index(args[0]).GetAllUpdateStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list updates: %w", err)
			}
			return a.print(cmd, sts, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tENQUEUED\tERROR")
				for _, st := range sts {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						st.UpdateID, st.Type.Name, st.Status, st.EnqueuedAt.Format("2006-01-02 15:04:05"), st.Error)
				}
				return tw.Flush()
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <uid> <update-id>",
		Short: "Show the status of one update",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid update id %q", args[1])
			}
			st, err := a.client.Index(args[0]).GetUpdateStatus(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get update: %w", err)
			}
			return a.print(cmd, st, updateText(st))
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func updateText(st meili.UpdateStatus) func(io.Writer) error {
	return func(w io.Writer) error {
		fmt.Fprintf(w, "Update %d: %s\n", st.UpdateID, st.Status)
		fmt.Fprintf(w, "  Type:     %s", st.Type.Name)
		if st.Type.Number > 0 {
			fmt.Fprintf(w, " (%d)", st.Type.Number)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Enqueued: %s\n", st.EnqueuedAt.Format("2006-01-02 15:04:05"))
		if st.ProcessedAt != nil {
			fmt.Fprintf(w, "  Processed: %s\n", st.ProcessedAt.Format("2006-01-02 15:04:05"))
		}
		if st.Error != "" {
			fmt.Fprintf(w, "  Error:    %s\n", st.Error)
		}
		return nil
	}
}
