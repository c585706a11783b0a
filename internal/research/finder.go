package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/pathfinder/internal/fetch"
)

// ProfileFinder looks up a contact's LinkedIn profile with Google Custom Search.
type ProfileFinder struct {
	svc    *customsearch.Service
	cx     string
	logger *zap.Logger
}

// NewProfileFinder creates a ProfileFinder. Extra client options are passed to the search service.
func NewProfileFinder(ctx context.Context, apiKey, cx string, logger *zap.Logger, opts ...option.ClientOption) (*ProfileFinder, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileFinder{svc: svc, cx: cx, logger: logger}, nil
}

// FindProfileURL returns the first linkedin.com/in/ result for the person, or "".
func (f *ProfileFinder) FindProfileURL(ctx context.Context, fullName, companyName string) string {
	if strings.TrimSpace(fullName) == "" {
		return ""
	}
	query := fmt.Sprintf(`site:linkedin.com/in "%s" "%s"`, fullName, companyName)

	resp, err := f.svc.Cse.List().Cx(f.cx).Q(query).Num(3).Context(ctx).Do()
	if err != nil {
		f.logger.Warn("profile search failed", zap.String("name", fullName), zap.Error(err))
		return ""
	}
	for _, item := range resp.Items {
		if fetch.LinkedInHandle(item.Link) != "" {
			return item.Link
		}
	}
	return ""
}
