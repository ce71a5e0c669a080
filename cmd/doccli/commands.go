package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"travel-docs/internal/config"
	"travel-docs/internal/domain"
	"travel-docs/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type cliState struct {
	output    string
	verbose   bool
	container *config.Container
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "doccli",
		Short: "Manage stored travel documents",
		Long: `doccli reads and changes the travel document collection kept in the
configured storage backend (STORAGE_BACKEND). It shares configuration
with the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !state.verbose {
				cfg.LogLevel = "warn"
			}
			c, err := config.NewContainer(cmd.Context(), cfg, config.WithLogOutput(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			state.container = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if state.container == nil {
				return nil
			}
			return state.container.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&state.output, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	rootCmd.AddCommand(
		newListCmd(state),
		newTypesCmd(state),
		newAddCmd(state),
		newDeleteCmd(state),
		newFailCmd(state),
		newUploadCmd(state),
	)
	return rootCmd
}

func newListCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := state.container.DocumentService.ListDocuments(cmd.Context())
			return state.print(cmd.OutOrStdout(), docs, func(w io.Writer) {
				printDocuments(w, docs)
			})
		},
	}
}

func newTypesCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List document types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := state.container.DocumentService.DocumentTypes()
			return state.print(cmd.OutOrStdout(), types, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCUSTOM")
				for _, t := range types {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", t.ID, t.Name, t.IsCustom)
				}
				tw.Flush()
			})
		},
	}
}

func newAddCmd(state *cliState) *cobra.Command {
	var input service.NewDocumentInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a pending document",
		Example: `  doccli add --type 1
  doccli add --type custom --name "Museum pass"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, result, err := state.container.DocumentService.CreateDocument(cmd.Context(), input)
			if err != nil {
				return err
			}
			if !result.Changed {
				fmt.Fprintf(cmd.ErrOrStderr(), "document %s already exists\n", doc.ID)
			}
			if err := persistWarning(result); err != nil {
				return err
			}
			return state.print(cmd.OutOrStdout(), doc, func(w io.Writer) {
				printDocuments(w, []domain.DocumentRecord{doc})
			})
		},
	}
	cmd.Flags().StringVar(&input.ID, "id", "", "document id (generated when empty)")
	cmd.Flags().StringVarP(&input.TypeID, "type", "t", "", "document type id, see 'doccli types'")
	cmd.Flags().StringVarP(&input.CustomName, "name", "n", "", "label for custom documents")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newDeleteCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := state.container.DocumentService.DeleteDocument(cmd.Context(), args[0])
			if !result.Changed {
				fmt.Fprintf(cmd.ErrOrStderr(), "document %s not found\n", args[0])
			}
			return persistWarning(result)
		},
	}
}

func newFailCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "fail <id>",
		Short: "Mark a pending document as failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, result, err := state.container.DocumentService.MarkFailed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := persistWarning(result); err != nil {
				return err
			}
			return state.print(cmd.OutOrStdout(), doc, func(w io.Writer) {
				printDocuments(w, []domain.DocumentRecord{doc})
			})
		},
	}
}

func newUploadCmd(state *cliState) *cobra.Command {
	var input service.NewDocumentInput
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Copy a local file into storage and record it as uploaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := state.container
			candidate, err := c.DocumentService.NewCandidate(input)
			if err != nil {
				return err
			}
			if existing, ok := c.DocumentStore.Get(cmd.Context(), candidate.ID); ok {
				candidate = existing
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			picker := service.NewPathPicker(c.FileStore, args[0])
			result := c.UploadService.UploadDocument(ctx, picker, candidate)
			if !result.Success {
				if errors.Is(result.Err, domain.ErrUploadCancelled) {
					return errors.New("no file selected")
				}
				return result.Err
			}
			if err := persistWarning(result.Persist); err != nil {
				return err
			}
			return state.print(cmd.OutOrStdout(), result.Document, func(w io.Writer) {
				printDocuments(w, []domain.DocumentRecord{*result.Document})
			})
		},
	}
	cmd.Flags().StringVar(&input.ID, "id", "", "document id; an existing pending document is completed")
	cmd.Flags().StringVarP(&input.TypeID, "type", "t", "", "document type id")
	cmd.Flags().StringVarP(&input.CustomName, "name", "n", "", "label for custom documents")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the upload after this long")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// persistWarning reports a collection write that did not reach storage.
// The change is lost when the process exits, so it is returned as an error.
func persistWarning(result domain.PersistResult) error {
	if result.Persisted {
		return nil
	}
	if result.Err != nil {
		return fmt.Errorf("change was not saved: %w", result.Err)
	}
	return errors.New("change was not saved")
}

func (s *cliState) print(w io.Writer, v interface{}, table func(io.Writer)) error {
	switch s.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "table", "":
		table(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", s.output)
	}
}

func printDocuments(w io.Writer, docs []domain.DocumentRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tSTATUS\tUPLOADED\tURI")
	for _, d := range docs {
		uploaded, uri := "-", "-"
		if d.UploadedAt != nil {
			uploaded = d.UploadedAt.Local().Format(time.DateTime)
		}
		if d.URI != nil {
			uri = *d.URI
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Type.ID, d.DisplayName(), d.Status, uploaded, uri)
	}
	tw.Flush()
}
