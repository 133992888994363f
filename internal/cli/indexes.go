package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
)

func (a *app) indexesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "indexes",
		Aliases: []string{"index"},
		Short:   "Manage indexes",
	}

	var name, primaryKey string

	list := &cobra.Command{
		Use:   "list",
		Short: "List all indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := a.client.ListIndexes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list indexes: %w", err)
			}
			return a.print(cmd, infos, func(w io.Writer) error {
				if len(infos) == 0 {
					_, err := fmt.Fprintln(w, "No indexes")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "UID\tNAME\tPRIMARY KEY\tUPDATED")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						info.UID, info.Name, primaryKeyOf(info), info.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}

	create := &cobra.Command{
		Use:   "create <uid>",
		Short: "Create an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client.CreateIndex(cmd.Context(), meili.CreateIndexRequest{
				UID:        args[0],
				Name:       name,
				PrimaryKey: primaryKey,
			})
			if err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
			return a.print(cmd, info, indexText(info))
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name (defaults to the uid)")
	create.Flags().StringVar(&primaryKey, "primary-key", "", "identifier attribute of documents")

	show := &cobra.Command{
		Use:   "show <uid>",
		Short: "Show index metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client.Index(args[0]).Show(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get index: %w", err)
			}
			return a.print(cmd, info, indexText(info))
		},
	}

	update := &cobra.Command{
		Use:   "update <uid>",
		Short: "Rename an index or set its primary key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client.Index(args[0]).UpdateIndex(cmd.Context(), meili.UpdateIndexRequest{
				Name:       name,
				PrimaryKey: primaryKey,
			})
			if err != nil {
				return fmt.Errorf("failed to update index: %w", err)
			}
			return a.print(cmd, info, indexText(info))
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	update.Flags().StringVar(&primaryKey, "primary-key", "", "primary key, only while the index has none")

	del := &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete an index and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Index(args[0]).DeleteIndex(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete index: %w", err)
			}
			return a.print(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Index %s deleted\n", args[0])
				return err
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats <uid>",
		Short: "Show index statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Index(args[0]).GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get index stats: %w", err)
			}
			return a.print(cmd, st, func(w io.Writer) error {
				fmt.Fprintf(w, "Documents: %d\n", st.NumberOfDocuments)
				fmt.Fprintf(w, "Indexing:  %t\n", st.IsIndexing)
				return writeFrequencies(w, st.FieldsFrequency)
			})
		},
	}

	cmd.AddCommand(list, create, show, update, del, stats)
	return cmd
}

func primaryKeyOf(info meili.IndexInfo) string {
	if info.PrimaryKey == nil {
		return "-"
	}
	return *info.PrimaryKey
}

func indexText(info meili.IndexInfo) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Index: %s\n  Name:        %s\n  Primary key: %s\n  Created:     %s\n  Updated:     %s\n",
			info.UID, info.Name, primaryKeyOf(info),
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
		return err
	}
}
