package fixity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
)

// maxCatalogPages guards against a service that keeps announcing pages.
const maxCatalogPages = 100000

// ListEligible walks the whole catalog and keeps fully stored AIPs in
// listing order. Any failed page aborts the listing.
func (s *Service) ListEligible(ctx context.Context) ([]domainfixity.PackageSummary, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.storage == nil {
		return nil, errors.New("storage service is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.fixity.catalog"))

	var (
		packages []domainfixity.PackageSummary
		seen     = map[string]struct{}{}
		skipped  int
	)

	req := s.paginator.First()
	for pages := 0; ; pages++ {
		if pages >= maxCatalogPages {
			return nil, errs.Wrapf(errors.New("too many catalog pages"), "list packages after %d pages", pages)
		}
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "check context")
		}

		page, err := s.storage.ListPackages(ctx, req)
		if err != nil {
			return nil, err
		}

		for _, entry := range page.Objects {
			if !domainfixity.Eligible(entry.PackageType, entry.Status) {
				skipped++
				continue
			}
			if _, err := domainfixity.ValidateIdentifier(entry.UUID); err != nil {
				logging.Warn(logCtx, "skip catalog entry with invalid uuid",
					slog.String("uuid", entry.UUID),
					slog.Any("err", errs.Loggable(err)),
				)
				skipped++
				continue
			}
			if _, dup := seen[entry.UUID]; dup {
				continue
			}
			seen[entry.UUID] = struct{}{}
			packages = append(packages, domainfixity.PackageSummary{
				UUID:        entry.UUID,
				PackageType: entry.PackageType,
				Status:      entry.Status,
			})
		}

		next, ok := s.paginator.Next(req, page)
		if !ok {
			break
		}
		req = next
	}

	logging.Debug(logCtx, "catalog listed", slog.Int("eligible", len(packages)), slog.Int("skipped", skipped))
	return packages, nil
}
