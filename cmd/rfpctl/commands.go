package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	var mediaType string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Store a document and print the model's assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if mediaType == "" {
				mediaType = detectMediaType(args[0], data)
			}

			app, _, err := root.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Analysis.Analyze(cmd.Context(), documents.Upload{
				Name:      filepath.Base(args[0]),
				MediaType: mediaType,
				Size:      int64(len(data)),
				Data:      data,
			})
			if err != nil {
				var mal *analysis.MalformedAnalysisError
				if errors.As(err, &mal) && mal.Raw != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "raw model output:")
					fmt.Fprintln(cmd.ErrOrStderr(), mal.Raw)
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&mediaType, "type", "", "media type (detected from content when empty)")
	return cmd
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download a stored upload by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := root.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			f, err := app.Files.Retrieve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = f.Metadata.OriginalName
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(f.Data)
				return err
			}
			if err := os.WriteFile(out, f.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s, %d bytes) -> %s\n", f.Metadata.OriginalName, f.Metadata.MimeType, len(f.Data), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", `output path ("-" for stdout, default original name)`)
	return cmd
}

func newStorageHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "storage-health",
		Short: "Check that the configured bucket is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cfg, err := root.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			w := cmd.OutOrStdout()
			if err := app.Store.Ping(ctx); err != nil {
				fmt.Fprintf(w, "%s %s bucket %q: %v\n", color.RedString("FAIL"), cfg.Storage.Backend, app.Store.Bucket(), err)
				return errors.New("storage unreachable")
			}
			fmt.Fprintf(w, "%s %s bucket %q\n", color.GreenString("OK"), cfg.Storage.Backend, app.Store.Bucket())
			return nil
		},
	}
}

// detectMediaType prefers the extension for formats sniffing cannot tell apart
// (docx and odt are both zip).
func detectMediaType(name string, data []byte) string {
	if mt := documents.MediaTypeByExtension(filepath.Ext(name)); mt != documents.MediaTypeOctet {
		return mt
	}
	return documents.BaseMediaType(mimetype.Detect(data).String())
}

func printSummary(w io.Writer, res analysis.Combined) {
	bold := color.New(color.Bold).SprintFunc()
	label := color.New(color.FgCyan).SprintFunc()

	verdict := color.New(color.FgRed, color.Bold).Sprint(res.Recommendation)
	if res.Recommendation == analysis.RecommendationGo {
		verdict = color.New(color.FgGreen, color.Bold).Sprint(res.Recommendation)
	}
	if res.Recommendation == "" {
		verdict = color.YellowString("none")
	}

	confidence := "n/a"
	if res.Confidence != nil {
		confidence = fmt.Sprintf("%.0f%%", *res.Confidence)
	}

	fmt.Fprintf(w, "%s %s (confidence %s)\n", bold("Recommendation:"), verdict, confidence)
	fmt.Fprintf(w, "%s %s\n", label("File:"), res.FileMetadata.ID)
	fmt.Fprintf(w, "%s %s\n", label("Disciplines:"), orNone(strings.Join(res.Disciplines, ", ")))
	fmt.Fprintf(w, "%s submission=%s completion=%s siteVisit=%s\n", label("Dates:"),
		deref(res.Dates.Submission), deref(res.Dates.Completion), deref(res.Dates.SiteVisit))

	fmt.Fprintln(w, label("Risks:"))
	if len(res.RiskLabels) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, r := range res.RiskLabels {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	if res.Rationale != "" {
		fmt.Fprintf(w, "%s %s\n", label("Rationale:"), res.Rationale)
	}

	if res.Extraction.Truncated {
		fmt.Fprintln(w, color.YellowString("note: document text was truncated to %d characters", res.Extraction.Characters))
	}
	for _, v := range res.Validation.Violations {
		fmt.Fprintln(w, color.YellowString("warning: %s", v.String()))
	}
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
