package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusColors = map[document.Status]*color.Color{
	document.StatusReady:      color.New(color.FgGreen),
	document.StatusProcessing: color.New(color.FgYellow),
	document.StatusFailed:     color.New(color.FgRed),
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func renderDocuments(out io.Writer, docs []document.Document) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tSTATUS\tPAGES\tUPLOADED")
	for _, d := range docs {
		status := string(d.Status)
		if d.UploadProgress != nil && d.Ref.Pending {
			status = fmt.Sprintf("uploading %d%%", *d.UploadProgress)
		}
		if c, ok := statusColors[d.Status]; ok {
			status = c.Sprint(status)
		}
		pages := "-"
		if d.Pages != nil {
			pages = strconv.Itoa(*d.Pages)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID(), d.Name, humanSize(d.Size), status, pages, d.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func init() {
	var (
		search string
		filter string
		sortBy string
	)
	docsCmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"ls"},
		Short:   "List documents in the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sortKey, err := document.ParseSort(sortBy)
			if err != nil {
				return err
			}
			status, err := document.ParseFilter(filter)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				snap, err := s.ws.Snapshot(document.Query{Search: search, Filter: status, Sort: sortKey})
				if err != nil {
					return err
				}
				renderDocuments(s.out, snap.Documents)
				fmt.Fprintf(s.out, "\n%d of %d shown, %d ready\n", len(snap.Documents), snap.Total, len(snap.Ready))
				return nil
			})
		},
	}
	docsCmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive name filter")
	docsCmd.Flags().StringVarP(&filter, "filter", "f", "all", "status filter: all, ready, processing or failed")
	docsCmd.Flags().StringVar(&sortBy, "sort", "date", "sort key: name, date, size or status")
	rootCmd.AddCommand(docsCmd)

	var wait bool
	uploadCmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]workspace.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, workspace.File{Name: filepath.Base(path), Data: data})
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				var failed int
				for _, r := range s.ws.Upload(ctx, files) {
					if r.Err != nil {
						failed++
						fmt.Fprintf(s.out, "%s %s: %v\n", color.RedString("✗"), r.Name, r.Err)
						continue
					}
					fmt.Fprintf(s.out, "%s %s -> %s\n", color.GreenString("✓"), r.Name, r.DocID)
				}
				if wait {
					s.ws.WaitPolls()
					snap, err := s.ws.Snapshot(document.Query{})
					if err != nil {
						return err
					}
					renderDocuments(s.out, snap.Documents)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d uploads failed", failed, len(files))
				}
				return nil
			})
		},
	}
	uploadCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until processing finishes")
	rootCmd.AddCommand(uploadCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Delete a document and its conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.ws.Delete(ctx, args[0])
			})
		},
	})

	var yes bool
	rmAllCmd := &cobra.Command{
		Use:   "rm-all",
		Short: "Delete every document and all conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete everything without --yes")
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.ws.DeleteAll(ctx)
			})
		},
	}
	rmAllCmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(rmAllCmd)

	downloadCmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download the original PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				path, err := s.ws.Download(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(s.out, path)
				return nil
			})
		},
	}
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "target directory (default $DOWNLOAD_DIR)")
	rootCmd.AddCommand(downloadCmd)
}
