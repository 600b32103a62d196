package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/certquest/arena-backend/internal/category"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/pricing"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrUnknownExam = errors.New("package references an exam that does not exist")

// PackageService handles package CRUD and read-time pricing.
type PackageService struct {
	packageRepo *repository.PackageRepository
	examRepo    *repository.ExamRepository
	bundler     *Bundler
	log         zerolog.Logger
}

// NewPackageService creates a new PackageService.
func NewPackageService(
	packageRepo *repository.PackageRepository,
	examRepo *repository.ExamRepository,
	bundler *Bundler,
	log zerolog.Logger,
) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
		examRepo:    examRepo,
		bundler:     bundler,
		log:         log.With().Str("component", "package_service").Logger(),
	}
}

// List returns a page of packages, each with its members and pricing.
func (s *PackageService) List(ctx context.Context, activeOnly bool, page, perPage int) ([]model.PackageDetail, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	packages, total, err := s.packageRepo.List(ctx, activeOnly, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	var ids []uuid.UUID
	for _, p := range packages {
		ids = append(ids, p.ExamIDs...)
	}
	exams, err := s.examRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load package exams: %w", err)
	}
	byID := make(map[uuid.UUID]model.Exam, len(exams))
	for _, e := range exams {
		byID[e.ID] = e
	}

	details := make([]model.PackageDetail, len(packages))
	for i, p := range packages {
		members := make([]model.Exam, 0, len(p.ExamIDs))
		for _, id := range p.ExamIDs {
			if e, ok := byID[id]; ok {
				members = append(members, e)
			}
		}
		details[i] = detail(p, members)
	}
	return details, response.NewPagination(page, perPage, total), nil
}

// Get returns one package with its members and pricing.
func (s *PackageService) Get(ctx context.Context, id uuid.UUID) (*model.PackageDetail, error) {
	p, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exams, err := s.examRepo.ListByIDs(ctx, p.ExamIDs)
	if err != nil {
		return nil, fmt.Errorf("load package exams: %w", err)
	}
	d := detail(*p, exams)
	return &d, nil
}

// Create stores a package from req.
func (s *PackageService) Create(ctx context.Context, req *model.PackageRequest) (*model.PackageDetail, error) {
	p := req.ToPackage()
	p.Category = category.OrDetect(p.Category, p.Title)
	if err := s.checkExams(ctx, p.ExamIDs); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	s.log.Info().Str("package_id", p.ID.String()).Int("exams", len(p.ExamIDs)).Msg("Package created")
	return s.Get(ctx, p.ID)
}

// Update replaces the package row and its member list.
func (s *PackageService) Update(ctx context.Context, id uuid.UUID, req *model.PackageRequest) (*model.PackageDetail, error) {
	if _, err := s.packageRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	p := req.ToPackage()
	p.ID = id
	p.Category = category.OrDetect(p.Category, p.Title)
	if err := s.checkExams(ctx, p.ExamIDs); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update package: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a package.
func (s *PackageService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.packageRepo.Delete(ctx, id)
}

// AutoBundle runs the auto-bundler.
func (s *PackageService) AutoBundle(ctx context.Context) (*model.BundleReport, error) {
	return s.bundler.Run(ctx)
}

func (s *PackageService) checkExams(ctx context.Context, ids []uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	exams, err := s.examRepo.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(exams) != len(unique) {
		return ErrUnknownExam
	}
	return nil
}

func detail(p model.Package, exams []model.Exam) model.PackageDetail {
	return model.PackageDetail{
		Package: p,
		Exams:   exams,
		Pricing: pricing.ForPackage(pricing.ExamPrices(exams), p.DiscountPercentage),
	}
}
