package export

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/decklens/decklens-cli/pkg/deckapi"
)

// NotionClient is the subset of the Notion API used by the exporter.
type NotionClient interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// notionClient wraps *notionapi.Client with Notion's 3 req/s rate limit.
type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewNotionClient creates a rate-limited Notion client.
func NewNotionClient(token string) NotionClient {
	return &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

// ExportRecommendation creates a report page for the deck's investment
// recommendation in the given Notion database.
func ExportRecommendation(ctx context.Context, client NotionClient, reportDB, deckID string, rec *deckapi.Recommendation) (*notionapi.Page, error) {
	if rec == nil {
		return nil, eris.New("export: no recommendation to export")
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(reportDB),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Text: &notionapi.Text{Content: fmt.Sprintf("Deck %s", deckID)}},
				},
			},
			"Verdict": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{Text: &notionapi.Text{Content: rec.Verdict}},
				},
			},
			"Confidence": notionapi.NumberProperty{
				Number: rec.Confidence,
			},
		},
		Children: []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: []notionapi.RichText{
						{Text: &notionapi.Text{Content: rec.Reasoning}},
					},
				},
			},
		},
	}

	page, err := client.CreatePage(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "export: notion page for deck %s", deckID)
	}
	return page, nil
}
