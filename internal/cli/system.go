package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
	"github.com/kailas-cloud/meili/internal/version"
)

func (a *app) healthCmd() *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe server health, or toggle it with --set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("set") {
				var healthy bool
				switch set {
				case "healthy":
					healthy = true
				case "unhealthy":
				default:
					return fmt.Errorf("--set must be healthy or unhealthy, got %q", set)
				}
				if err := a.client.ChangeHealthTo(cmd.Context(), healthy); err != nil {
					return fmt.Errorf("failed to change health: %w", err)
				}
			}

			ok, err := a.client.IsHealthy(cmd.Context())
			var remote *meili.RemoteError
			if err != nil && !errors.As(err, &remote) {
				return fmt.Errorf("health check failed: %w", err)
			}
			if err := a.print(cmd, map[string]bool{"healthy": ok}, func(w io.Writer) error {
				state := "healthy"
				if !ok {
					state = "unhealthy"
				}
				_, err := fmt.Fprintln(w, state)
				return err
			}); err != nil {
				return err
			}
			if !ok {
				return errors.New("server is unhealthy")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "healthy or unhealthy")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client.DatabaseStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			return a.print(cmd, st, func(w io.Writer) error {
				fmt.Fprintf(w, "Database size: %d bytes\n", st.DatabaseSize)
				if st.LastUpdate != nil {
					fmt.Fprintf(w, "Last update:   %s\n", st.LastUpdate.Format("2006-01-02 15:04:05"))
				}
				uids := make([]string, 0, len(st.Indexes))
				for uid := range st.Indexes {
					uids = append(uids, uid)
				}
				sort.Strings(uids)

				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tDOCUMENTS\tINDEXING")
				for _, uid := range uids {
					is := st.Indexes[uid]
					fmt.Fprintf(tw, "%s\t%d\t%t\n", uid, is.NumberOfDocuments, is.IsIndexing)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Show the private and public API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := a.client.GetKeys(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get keys: %w", err)
			}
			return a.print(cmd, keys, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Private: %s\nPublic:  %s\n", keys.Private, keys.Public)
				return err
			})
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.client.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get server version: %w", err)
			}
			out := map[string]any{
				"client": map[string]string{
					"version": version.Version,
					"commit":  version.Commit,
					"date":    version.Date,
				},
				"server": v,
			}
			return a.print(cmd, out, func(w io.Writer) error {
				fmt.Fprintf(w, "Client: %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
				_, err := fmt.Fprintf(w, "Server: %s (commit %s, built %s)\n", v.PkgVersion, v.CommitSha, v.BuildDate)
				return err
			})
		},
	}
}

func (a *app) sysInfoCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "sys-info",
		Short: "Show host system information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				info meili.SystemInformation
				err  error
			)
			if pretty {
				info, err = a.client.SystemInformationPretty(cmd.Context())
			} else {
				info, err = a.client.SystemInformation(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to get system information: %w", err)
			}
			return a.print(cmd, info, nil)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "human-readable units")
	return cmd
}

func writeFrequencies(w io.Writer, freq map[string]int) error {
	if len(freq) == 0 {
		return nil
	}
	fields := make([]string, 0, len(freq))
	for f := range freq {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tFREQUENCY")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%d\n", f, freq[f])
	}
	return tw.Flush()
}
