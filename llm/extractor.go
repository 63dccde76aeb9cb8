package llm

import (
	"context"
	"fmt"
	"strings"

	"stockbot/types"
)

// Token budgets per call.
const (
	extractMaxTokens  = 2000
	profileMaxTokens  = 1500
	catalystMaxTokens = 2000
	digestMaxTokens   = 4000
)

// Adapter implements Extractor on top of any Completer.
type Adapter struct {
	llm Completer
}

func NewAdapter(c Completer) *Adapter {
	return &Adapter{llm: c}
}

// ExtractMentions makes one model call for the whole batch. An empty batch
// returns no mentions without calling the model.
func (a *Adapter) ExtractMentions(ctx context.Context, posts []types.Post) ([]types.CompanyMention, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	reply, err := a.llm.Complete(ctx, buildExtractPrompt(posts), extractMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("extract mentions: %w", err)
	}
	return parseMentions(reply)
}

func (a *Adapter) AuthorProfile(ctx context.Context, company types.CompanyMention) (string, error) {
	return a.text(ctx, "author profile", buildProfilePrompt(company), profileMaxTokens)
}

func (a *Adapter) AnalyzeCatalyst(ctx context.Context, company types.CompanyMention, postText string) (string, error) {
	return a.text(ctx, "analyze catalyst", buildCatalystPrompt(company, postText), catalystMaxTokens)
}

func (a *Adapter) AuthorDigest(ctx context.Context, in DigestInput) (string, error) {
	return a.text(ctx, "author digest", buildDigestPrompt(in), digestMaxTokens)
}

func (a *Adapter) text(ctx context.Context, op, prompt string, maxTokens int) (string, error) {
	reply, err := a.llm.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", &types.ExtractionParseError{Op: op, Err: fmt.Errorf("empty reply from %s", a.llm.ModelName())}
	}
	return reply, nil
}
