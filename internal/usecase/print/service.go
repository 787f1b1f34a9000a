// Package print generates and retrieves cached clinical trial print pages.
package print

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/criteria"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/logger"
)

const tracerName = "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/print"

// DefaultDisplayURLFormat builds the retrieval URL injected into a saved page.
const DefaultDisplayURLFormat = "/CTS.Print/Display?printid=%s"

// Config holds the settings the pipeline needs at request time.
type Config struct {
	DefaultNewSearchLink string
	DisplayURLFormat     string
}

// Service runs the generate and retrieve pipelines.
type Service struct {
	trials   TrialFetcher
	renderer Renderer
	cache    PageCache
	cfg      Config
	tracer   trace.Tracer
}

// New creates a print service.
func New(trials TrialFetcher, renderer Renderer, cache PageCache, cfg Config) *Service {
	if cfg.DisplayURLFormat == "" {
		cfg.DisplayURLFormat = DefaultDisplayURLFormat
	}
	return &Service{
		trials:   trials,
		renderer: renderer,
		cache:    cache,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
}

// Generate validates the request body, builds the page and caches it under a new key.
func (s *Service) Generate(ctx context.Context, body []byte) (doc printdoc.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "print.Generate")
	defer func() { endSpan(span, err) }()
	log := logger.FromContext(ctx)

	req, err := ParseRequest(body, s.cfg.DefaultNewSearchLink)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			log.Error("generate request rejected", zap.Error(err))
		} else {
			log.Debug("generate request rejected", zap.Error(err))
		}
		return printdoc.Document{}, err
	}
	span.SetAttributes(attribute.Int("print.trial_ids", len(req.TrialIDs)))

	fetched, err := s.fetch(ctx, req.TrialIDs)
	if err != nil {
		log.Error("error retrieving trial details", zap.Error(err))
		return printdoc.Document{}, err
	}

	page := s.transform(ctx, log, req, fetched)

	doc, err = s.renderAndSave(ctx, page, req.Metadata)
	if err != nil {
		log.Error("error rendering and saving the page", zap.Error(err))
		return printdoc.Document{}, err
	}

	log.Info("print page generated",
		zap.String("print_id", doc.Key.String()),
		zap.Int("trials", len(page.Trials)),
	)
	return doc, nil
}

func (s *Service) fetch(ctx context.Context, ids []string) (_ []trial.Trial, err error) {
	ctx, span := s.tracer.Start(ctx, "print.FetchTrials")
	defer func() { endSpan(span, err) }()
	return s.trials.FetchTrials(ctx, ids)
}

func (s *Service) transform(
	ctx context.Context, log *zap.Logger, req Request, fetched []trial.Trial,
) printdoc.Page {
	_, span := s.tracer.Start(ctx, "print.Transform")
	defer span.End()

	sc := criteria.NewSearchCriteria(req.Criteria)
	lc := criteria.NewLocationCriteria(req.Criteria)
	span.SetAttributes(attribute.String("print.location_type", lc.Type.String()))

	trials := RemoveNonRecruitingSites(log, fetched)
	trials = ApplyLocationFilter(trials, lc)
	trials = SetLocationStateNames(trials)
	trials = EnforceTrialOrder(log, trials, req.TrialIDs)

	return printdoc.Page{
		Trials:        trials,
		Criteria:      sc,
		Location:      lc,
		LinkTemplate:  req.LinkTemplate,
		NewSearchLink: req.NewSearchLink,
	}
}

func (s *Service) renderAndSave(
	ctx context.Context, page printdoc.Page, metadata string,
) (doc printdoc.Document, err error) {
	renderCtx, span := s.tracer.Start(ctx, "print.Render")
	html, err := s.renderer.Render(renderCtx, page)
	endSpan(span, err)
	if err != nil {
		return printdoc.Document{}, fmt.Errorf("render page: %w", err)
	}

	doc, err = printdoc.New(html, metadata, s.cfg.DisplayURLFormat)
	if err != nil {
		return printdoc.Document{}, err
	}

	saveCtx, span := s.tracer.Start(ctx, "print.Save",
		trace.WithAttributes(attribute.String("print.id", doc.Key.String())))
	err = s.cache.Save(saveCtx, doc.Key, doc.Metadata, doc.Content)
	endSpan(span, err)
	if err != nil {
		return printdoc.Document{}, err
	}
	return doc, nil
}

// Retrieve returns the cached page for rawID.
func (s *Service) Retrieve(ctx context.Context, rawID string) (content string, err error) {
	ctx, span := s.tracer.Start(ctx, "print.Retrieve")
	defer func() { endSpan(span, err) }()

	key, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return "", domain.ErrInvalidPrintID
	}
	span.SetAttributes(attribute.String("print.id", key.String()))
	ctx = logger.With(ctx, zap.String("print_id", key.String()))

	content, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Error("error retrieving print page", zap.Error(err))
		return "", err
	}
	if !found || strings.TrimSpace(content) == "" {
		return "", domain.ErrPrintIDNotFound
	}
	return content, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
