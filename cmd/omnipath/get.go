package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/pkg/omnipath"
	"github.com/omnipath-client/pkg/query"
)

var getCmd = &cobra.Command{
	Use:   "get <endpoint>",
	Short: "Download a table and print it as TSV",
	Long: `Get downloads one endpoint (annotations, complexes, enzsub, intercell or
interactions) and prints the processed table as TSV on standard output.

Query parameters are passed as --param key=value and may be repeated;
comma separated values become collections. Interactions may be restricted to
a preset (--preset Dorothea) or to --datasets minus --exclude.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringArrayP("param", "p", nil, "query parameter as key=value, repeatable")
	getCmd.Flags().String("format", "", "response format requested from the server: tsv or json")
	getCmd.Flags().Bool("force-full-download", false, "allow downloading all annotations")
	getCmd.Flags().Bool("strict-evidences", false, "rebuild interaction columns from the requested datasets and resources only")
	getCmd.Flags().StringSlice("datasets", nil, "interaction datasets to include")
	getCmd.Flags().StringSlice("exclude", nil, "interaction datasets to exclude")
	getCmd.Flags().String("preset", "", "interaction dataset preset, e.g. OmniPath, Dorothea, PostTranslational")
	getCmd.Flags().Bool("metrics", false, "print download metrics to standard error")

	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	params, err := parseParams(cmd)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := selectRequest(cmd, s.client, args[0])
	if err != nil {
		return err
	}

	res, err := req.Get(cmd.Context(), params)
	if err != nil {
		return err
	}
	if err := res.WriteTSV(os.Stdout); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	if show, _ := cmd.Flags().GetBool("metrics"); show {
		s.printMetrics()
	}
	return nil
}

func parseParams(cmd *cobra.Command) (omnipath.Params, error) {
	raw, _ := cmd.Flags().GetStringArray("param")
	params, err := buildParams(raw)
	if err != nil {
		return nil, err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		params["format"] = format
	}
	if force, _ := cmd.Flags().GetBool("force-full-download"); force {
		params[omnipath.ForceFullDownload] = true
	}
	if strict, _ := cmd.Flags().GetBool("strict-evidences"); strict {
		params[omnipath.StrictEvidences] = true
	}
	return params, nil
}

// buildParams turns key=value pairs into query parameters; comma separated
// values become lists and a repeated key accumulates its values
func buildParams(raw []string) (omnipath.Params, error) {
	params := make(omnipath.Params, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}

		values := strings.Split(value, ",")
		prev, seen := params[key]
		switch {
		case seen:
			params[key] = append(asList(prev), values...)
		case len(values) > 1:
			params[key] = values
		default:
			params[key] = value
		}
	}
	return params, nil
}

func asList(v any) []string {
	if list, ok := v.([]string); ok {
		return list
	}
	return []string{v.(string)}
}

// selectRequest resolves the endpoint argument and the interaction flags
func selectRequest(cmd *cobra.Command, client *omnipath.Client, endpoint string) (omnipath.Getter, error) {
	endpoint = strings.ToLower(endpoint)
	if endpoint != query.Interactions {
		return client.Request(endpoint)
	}

	include, err := datasetFlag(cmd, "datasets")
	if err != nil {
		return nil, err
	}
	exclude, err := datasetFlag(cmd, "exclude")
	if err != nil {
		return nil, err
	}

	preset, _ := cmd.Flags().GetString("preset")
	switch {
	case preset == "" || strings.EqualFold(preset, "AllInteractions"):
		return allInteractions(client, include, exclude)
	case strings.EqualFold(preset, "PostTranslational"):
		r, err := client.PostTranslational(exclude...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	for name, p := range omnipath.Presets {
		if strings.EqualFold(name, preset) {
			return client.Interactions(p), nil
		}
	}
	return nil, domain.NewValidationError("preset", "unknown interaction preset", preset)
}

func allInteractions(client *omnipath.Client, include, exclude []domain.InteractionDataset) (omnipath.Getter, error) {
	r, err := client.AllInteractions(include, exclude)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func datasetFlag(cmd *cobra.Command, name string) ([]domain.InteractionDataset, error) {
	raw, _ := cmd.Flags().GetStringSlice(name)
	out := make([]domain.InteractionDataset, 0, len(raw))
	for _, s := range raw {
		d, err := domain.ParseInteractionDataset(s)
		if err != nil {
			return nil, domain.NewValidationError(name, err.Error(), s)
		}
		out = append(out, d)
	}
	return out, nil
}
