package casecmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/justibot/justibot/internal/apiclient"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/workflow"
	"github.com/spf13/cobra"
)

// ServerFlag is the persistent flag holding the server base URL.
const ServerFlag = "server"

var Group = &cobra.Group{
	ID:    "case",
	Title: "Case operations",
}

func init() {
	Download.Flags().String("out", "", "path of the downloaded file, defaults to the document reference")
	File.Flags().Duration("timeout", workflow.DefaultTimeout, "bound for each server call")
}

func client(cmd *cobra.Command) (*apiclient.Client, error) {
	serverURL, err := cmd.Flags().GetString(ServerFlag)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server flag")
	}
	return apiclient.New(serverURL, nil), nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("case id must be a positive integer", slog.String("id", arg))
	}
	return id, nil
}

var File = &cobra.Command{
	Use:     "file",
	GroupID: "case",
	Short:   "File a case interactively",
	Long:    `Guides you through describing the problem, reviewing the generated draft and signing the final document.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := client(cmd)
		if err != nil {
			return err
		}
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return errors.Wrap(err, "invalid timeout flag")
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			AddSource:   false,
			Level:       slog.LevelError,
			ReplaceAttr: nil,
		}))
		controller := workflow.NewController(c, timeout, logger)
		return NewFiling(cmd.InOrStdin(), cmd.OutOrStdout(), controller).Run(cmd.Context())
	},
}

var Get = &cobra.Command{
	Use:     "get [id]",
	GroupID: "case",
	Short:   "Show a case",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := client(cmd)
		if err != nil {
			return err
		}
		found, err := c.GetCase(cmd.Context(), id)
		if err != nil {
			return err //nolint:wrapcheck // already annotated by the client
		}
		printCase(cmd.OutOrStdout(), found)
		return nil
	},
}

var Redraft = &cobra.Command{
	Use:     "redraft [id]",
	GroupID: "case",
	Short:   "Generate the draft of a case again",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := client(cmd)
		if err != nil {
			return err
		}
		drafted, err := c.RegenerateDraft(cmd.Context(), id)
		if err != nil {
			return err //nolint:wrapcheck // already annotated by the client
		}
		printCase(cmd.OutOrStdout(), drafted)
		return nil
	},
}

var Download = &cobra.Command{
	Use:     "download [reference]",
	GroupID: "case",
	Short:   "Download a finalized document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			return errors.Wrap(err, "invalid out flag")
		}
		if outPath == "" {
			outPath = ref
		}
		c, err := client(cmd)
		if err != nil {
			return err
		}

		file, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "create file", slog.String("path", outPath))
		}
		defer func(file *os.File) {
			_ = file.Close()
		}(file)

		n, err := c.DownloadDocument(cmd.Context(), ref, file)
		if err != nil {
			_ = os.Remove(outPath)
			return err //nolint:wrapcheck // already annotated by the client
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", outPath, n)
		return nil
	},
}

func printCase(w io.Writer, c *models.Case) {
	_, _ = fmt.Fprintf(w, "Case %d: %s (%s)\n", c.ID, c.Category.DocumentTitle(), c.Status)
	_, _ = fmt.Fprintf(w, "Description: %s\n", c.Description)
	if c.DocumentReference != "" {
		_, _ = fmt.Fprintf(w, "Document: %s\n", c.DocumentReference)
	}
	if c.GeneratedText != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", c.GeneratedText)
	}
}
