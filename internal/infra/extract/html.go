package extract

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// htmlExtractor sanitizes markup and renders it as markdown, which keeps headings, lists
// and tables readable for the model.
type htmlExtractor struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

func newHTMLExtractor() *htmlExtractor {
	return &htmlExtractor{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (h *htmlExtractor) text(data []byte) (string, error) {
	clean := h.policy.SanitizeBytes(data)
	return h.conv.ConvertString(string(clean))
}
