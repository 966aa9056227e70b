package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/fabriclog"
)

var (
	extractImages []string
	extractURL    string
	extractNoPage bool
	extractFormat string
)

var extractCmd = &cobra.Command{
	Use:   "extract [text | -]",
	Short: "Extract a candidate record and print it",
	Long: `Extract a candidate record from product text, a product page URL or
photos of one fabric item. Text is read from the arguments, or from stdin
when the only argument is "-". The record printed (JSON or YAML) can be
edited and passed to "fabriclog save --from".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		text, err := argText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		var in fabriclog.Input
		switch {
		case len(extractImages) > 0:
			sources := make([]fabriclog.ImageSource, 0, len(extractImages))
			for _, p := range extractImages {
				sources = append(sources, fabriclog.ImageFile(p))
			}
			images, err := fabriclog.LoadImages(ctx, a.settings.MaxImagePx, sources...)
			if err != nil {
				return err
			}
			in = fabriclog.ImageInput(images...)
			in.Text = text
		case extractURL != "":
			in = fabriclog.URLInput(extractURL)
			in.Fetch = a.settings.FetchPages && !extractNoPage
		default:
			in = fabriclog.TextInput(text)
		}

		sess := fabriclog.NewSession("cli", a.extractor, nil, fabriclog.WithSessionLogger(a.log))
		rec, err := sess.Extract(ctx, in)
		if err != nil {
			var mr *fabriclog.MalformedResponse
			if errors.As(err, &mr) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Model reply:")
				fmt.Fprintln(cmd.ErrOrStderr(), mr.Raw)
			}
			return err
		}

		return writeCandidate(cmd.OutOrStdout(), *rec, extractFormat)
	},
}

func argText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}

func init() {
	extractCmd.Flags().StringArrayVarP(&extractImages, "image", "i", nil, "photo of the item, repeat for several views")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "product page URL")
	extractCmd.Flags().BoolVar(&extractNoPage, "no-fetch", false, "send only the URL, do not read the page")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(extractCmd)
}
