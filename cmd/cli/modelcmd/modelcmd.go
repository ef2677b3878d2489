package modelcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/envstruct"
	"github.com/justibot/justibot/internal/errors"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

var Group = &cobra.Group{
	ID:    "model",
	Title: "Language model operations",
}

type providerConfig struct {
	Provider string `env:"JUSTIBOT_AI_PROVIDER" envDefault:"gemini"`
	APIKey   string `env:"JUSTIBOT_AI_API_KEY"`
	BaseURL  string `env:"JUSTIBOT_AI_BASE_URL" envDefault:""`
}

var errUnknownProvider = errors.NewSentinel("unknown AI provider")

func newProvider(ctx context.Context, lookupEnv func(string) (string, bool)) (ai.Provider, func(), error) {
	var cfg providerConfig
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return nil, nil, errors.Wrap(err, "populate provider config")
	}
	switch cfg.Provider {
	case "openai":
		return ai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL), func() {}, nil
	case "gemini":
		var opts []option.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithEndpoint(cfg.BaseURL))
		}
		p, err := ai.NewGeminiProvider(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "new gemini provider")
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return nil, nil, errUnknownProvider
	}
}

// PrintModels lists the models of provider and marks the one drafts would use.
func PrintModels(ctx context.Context, w io.Writer, provider ai.Provider) error {
	models, err := provider.ListModels(ctx)
	if err != nil {
		return errors.Wrap(err, "list models")
	}
	selected, selectErr := ai.SelectModel(models)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0) //nolint:mnd // column layout
	_, _ = fmt.Fprintln(tw, "MODEL\tGENERATES CONTENT\tSELECTED")
	for _, m := range models {
		marker := ""
		if m.Name == selected {
			marker = "*"
		}
		capable := slices.Contains(m.Capabilities, ai.CapabilityGenerateContent)
		_, _ = fmt.Fprintf(tw, "%s\t%t\t%s\n", m.Name, capable, marker)
	}
	if err = tw.Flush(); err != nil {
		return errors.Wrap(err, "flush table")
	}
	if selectErr != nil {
		return errors.Wrap(selectErr, "select model")
	}
	return nil
}

var List = &cobra.Command{
	Use:     "models",
	GroupID: "model",
	Short:   "List the language models of the configured provider",
	Long: `Lists the models the configured provider offers and marks the one used for drafting.
The provider is configured with JUSTIBOT_AI_PROVIDER, JUSTIBOT_AI_API_KEY and JUSTIBOT_AI_BASE_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, closeProvider, err := newProvider(cmd.Context(), os.LookupEnv)
		if err != nil {
			return err
		}
		defer closeProvider()
		return PrintModels(cmd.Context(), cmd.OutOrStdout(), provider)
	},
}
