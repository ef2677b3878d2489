package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/justibot/justibot/internal/apiclient"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/logging"
	"github.com/justibot/justibot/internal/models"
)

var errUnexpected = errors.NewSentinel("unexpected result")

// TestCaseFlow files a case end to end: create, finalize and download the document.
func TestCaseFlow(ctx context.Context, client *apiclient.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute) //nolint:mnd // generation may take a minute
	defer cancel()

	if err := client.Healthy(ctx); err != nil {
		return errors.Wrap(err, "health check")
	}

	created, err := client.CreateCase(ctx, models.CategoryHealthAccess,
		"Smoke test: mi EPS no me entrega el Losartán formulado desde hace tres meses.")
	if err != nil {
		return errors.Wrap(err, "create case")
	}
	ctx = logging.WithAttrs(ctx, slog.Int64("case_id", created.ID))
	if created.Status != models.StatusDrafted || created.GeneratedText == "" {
		return errors.Wrap(errUnexpected, "case not drafted", slog.String("status", string(created.Status)))
	}

	identity := models.CitizenIdentity{Name: "Smoke Test", NationalID: "0000000000", City: "Bogotá", Email: ""}
	finalized, err := client.FinalizeCase(ctx, created.ID, identity)
	if err != nil {
		return errors.Wrap(err, "finalize case")
	}

	var buf bytes.Buffer
	if _, err = client.DownloadDocument(ctx, finalized.DocumentReference, &buf); err != nil {
		return errors.Wrap(err, "download document")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		return errors.Wrap(errUnexpected, "document is not a PDF", slog.Int("bytes", buf.Len()))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if err := TestCaseFlow(ctx, apiclient.New(url, nil)); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing case flow", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
