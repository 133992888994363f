package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
)

func (a *app) documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Read and write documents of an index",
	}

	var (
		offset, limit int
		attrs         []string
		primaryKey    string
		wait          bool
	)

	list := &cobra.Command{
		Use:   "list <uid>",
		Short: "List documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &meili.DocumentsParams{AttributesToRetrieve: attrs}
			if cmd.Flags().Changed("offset") {
				params.Offset = meili.Int(offset)
			}
			if cmd.Flags().Changed("limit") {
				params.Limit = meili.Int(limit)
			}
			docs, err := a.client.Index(args[0]).GetDocuments(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}
			return a.print(cmd, docs, nil)
		},
	}
	list.Flags().IntVar(&offset, "offset", 0, "number of documents to skip")
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of documents")
	list.Flags().StringSliceVar(&attrs, "attributes", nil, "attributes to retrieve")

	get := &cobra.Command{
		Use:   "get <uid> <id>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.client.Index(args[0]).GetDocument(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("failed to get document: %w", err)
			}
			return a.print(cmd, doc, nil)
		},
	}

	push := func(use, short string, partial bool) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " <uid> <file|->",
			Short: short,
			Long:  short + ". The input is a JSON array of objects; - reads stdin.",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				docs, err := readDocuments(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				idx := a.client.Index(args[0])
				params := &meili.AddDocumentsParams{PrimaryKey: primaryKey}

				var up meili.AsyncUpdate
				if partial {
					up, err = idx.UpdateDocuments(cmd.Context(), docs, params)
				} else {
					up, err = idx.AddDocuments(cmd.Context(), docs, params)
				}
				if err != nil {
					return fmt.Errorf("failed to %s documents: %w", use, err)
				}
				return a.finish(cmd, idx, up, wait)
			},
		}
		c.Flags().StringVar(&primaryKey, "primary-key", "", "identifier attribute when the index has none")
		c.Flags().BoolVar(&wait, "wait", false, "wait until the update is processed")
		return c
	}

	del := &cobra.Command{
		Use:   "delete <uid> <id>...",
		Short: "Delete documents by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx := a.client.Index(args[0])
			ids := args[1:]

			var (
				up  meili.AsyncUpdate
				err error
			)
			if len(ids) == 1 {
				up, err = idx.DeleteDocument(cmd.Context(), ids[0])
			} else {
				up, err = idx.DeleteDocuments(cmd.Context(), ids)
			}
			if err != nil {
				return fmt.Errorf("failed to delete documents: %w", err)
			}
			return a.finish(cmd, idx, up, wait)
		},
	}
	del.Flags().BoolVar(&wait, "wait", false, "wait until the update is processed")

	clearCmd := &cobra.Command{
		Use:   "clear <uid>",
		Short: "Delete every document of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx := a.client.Index(args[0])
			up, err := idx.DeleteAllDocuments(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear documents: %w", err)
			}
			return a.finish(cmd, idx, up, wait)
		},
	}
	clearCmd.Flags().BoolVar(&wait, "wait", false, "wait until the update is processed")

	cmd.AddCommand(
		list,
		get,
		push("add", "Add or replace documents", false),
		push("update", "Add or merge documents", true),
		del,
		clearCmd,
	)
	return cmd
}

// readDocuments loads a JSON array of objects from path, or from stdin
// when path is "-".
func readDocuments(stdin io.Reader, path string) ([]json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("documents must be a JSON array: %w", err)
	}
	for i, d := range docs {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(d, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("document %d is not a JSON object", i)
		}
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents to send")
	}
	return docs, nil
}
