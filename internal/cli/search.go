package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		offset, limit, cropLength, timeoutMs int
		retrieve, searchIn, crop, highlight  []string
		filter                               string
		matches                              bool
	)

	cmd := &cobra.Command{
		Use:   "search <uid> <query>",
		Short: "Search an index",
		Long: `Search an index. Only the flags given on the command line are sent;
the server applies its defaults to the rest.`,
		Example: `  meili search movies "star wars" --limit 5 --highlight title
  meili search products laptop --filter 'brand = "acme"' --retrieve id,title`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			req := a.client.Index(args[0]).NewSearch(args[1])
			if f.Changed("offset") {
				req.Offset(offset)
			}
			if f.Changed("limit") {
				req.Limit(limit)
			}
			if f.Changed("crop-length") {
				req.CropLength(cropLength)
			}
			if f.Changed("timeout-ms") {
				req.TimeoutMs(timeoutMs)
			}
			if f.Changed("matches") {
				req.Matches(matches)
			}
			req.Retrieve(retrieve...).SearchIn(searchIn...).Crop(crop...).Highlight(highlight...).Filter(filter)

			res, err := req.Do(cmd.Context())
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return a.print(cmd, res, func(w io.Writer) error {
				return writeHits(w, res)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&offset, "offset", 0, "number of hits to skip")
	f.IntVar(&limit, "limit", 20, "maximum number of hits")
	f.StringSliceVar(&retrieve, "retrieve", nil, "attributes to retrieve")
	f.StringSliceVar(&searchIn, "search-in", nil, "restrict matching to these attributes")
	f.StringSliceVar(&crop, "crop", nil, "attributes to crop around matches")
	f.IntVar(&cropLength, "crop-length", 0, "length of cropped values")
	f.StringSliceVar(&highlight, "highlight", nil, "attributes to highlight")
	f.StringVar(&filter, "filter", "", "filter expression")
	f.IntVar(&timeoutMs, "timeout-ms", 0, "server-side search timeout hint")
	f.BoolVar(&matches, "matches", false, "return match positions")
	return cmd
}

func writeHits(w io.Writer, res *meili.SearchResponse) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d hits for %q (%d ms)\n", len(res.Hits), res.NbHits, res.Query, res.ProcessingTimeMs)
	for i, hit := range res.Hits {
		doc := hit
		if formatted, ok := hit["_formatted"].(map[string]any); ok {
			doc = formatted
		}
		fmt.Fprintf(&b, "\n%d.", res.Offset+i+1)
		keys := make([]string, 0, len(doc))
		for k := range doc {
			if !strings.HasPrefix(k, "_") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, doc[k])
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
