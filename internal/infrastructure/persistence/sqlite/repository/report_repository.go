package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/model"
	"github.com/artefactual/fixity/internal/ports"
)

type ReportRepository struct {
	db *gorm.DB
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *ReportRepository) FindPackage(ctx context.Context, uuid string) (ports.PackageRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.PackageRecord{}, err
	}
	return findPackage(db, uuid)
}

// EnsurePackage returns the package row for uuid, creating it on first use.
func (r *ReportRepository) EnsurePackage(ctx context.Context, uuid string, createdAt string) (ports.PackageRecord, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return ports.PackageRecord{}, errors.New("package uuid is required")
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.PackageRecord{}, err
	}

	row := model.Package{UUID: uuid, CreatedAt: createdAt}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return ports.PackageRecord{}, errs.Wrap(err, "insert package")
	}
	return findPackage(db, uuid)
}

func (r *ReportRepository) AppendReport(ctx context.Context, input ports.ReportCreate) (ports.ReportRecord, error) {
	if input.PackageID == 0 {
		return ports.ReportRecord{}, errors.New("package id is required")
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ReportRecord{}, err
	}

	row := model.Report{
		PackageID:      input.PackageID,
		SessionID:      input.SessionID,
		Begun:          input.Begun,
		Ended:          input.Ended,
		Outcome:        input.Outcome,
		DeliveryStatus: input.DeliveryStatus,
		Message:        input.Message,
		Report:         input.Report,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return ports.ReportRecord{}, errs.Wrap(err, "insert report")
	}

	pkg, err := getPackageByID(db, row.PackageID)
	if err != nil {
		return ports.ReportRecord{}, err
	}
	return mapReport(row, pkg.UUID), nil
}

// UpdateDeliveryStatus moves a report out of not_attempted. It refuses a
// second update so delivery is recorded at most once.
func (r *ReportRepository) UpdateDeliveryStatus(ctx context.Context, reportID uint64, status string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Report{}).
		Where("id = ? AND delivery_status = ?", reportID, "not_attempted").
		Update("delivery_status", status)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update delivery status")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := getReportByID(db, reportID); err != nil {
		return err
	}
	return ports.ErrDeliveryAlreadyRecorded
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID uint64) (ports.ReportRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ReportRecord{}, err
	}

	row, err := getReportByID(db, reportID)
	if err != nil {
		return ports.ReportRecord{}, err
	}
	pkg, err := getPackageByID(db, row.PackageID)
	if err != nil {
		return ports.ReportRecord{}, err
	}
	return mapReport(row, pkg.UUID), nil
}

func (r *ReportRepository) LatestReport(ctx context.Context, packageUUID string) (ports.ReportRecord, error) {
	items, err := r.ListReports(ctx, ports.ReportFilter{PackageUUID: packageUUID, Limit: 1})
	if err != nil {
		return ports.ReportRecord{}, err
	}
	if len(items) == 0 {
		return ports.ReportRecord{}, ports.ErrReportNotFound
	}
	return items[0], nil
}

// ListReports returns newest first.
func (r *ReportRepository) ListReports(ctx context.Context, filter ports.ReportFilter) ([]ports.ReportRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Report{})
	if uuid := strings.TrimSpace(filter.PackageUUID); uuid != "" {
		sub := db.Model(&model.Package{}).Select("id").Where("uuid = ?", uuid)
		query = query.Where("package_id IN (?)", sub)
	}
	if session := strings.TrimSpace(filter.SessionID); session != "" {
		query = query.Where("session_id = ?", session)
	}
	if outcome := strings.TrimSpace(filter.Outcome); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Report
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reports")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	uuids, err := packageUUIDs(db, rows)
	if err != nil {
		return nil, err
	}

	items := make([]ports.ReportRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReport(row, uuids[row.PackageID]))
	}
	return items, nil
}

func (r *ReportRepository) CountByOutcome(ctx context.Context) ([]ports.OutcomeCount, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Outcome string
		Count   int64
	}
	if err := db.Model(&model.Report{}).
		Select("outcome, count(*) as count").
		Group("outcome").
		Order("outcome asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "count reports by outcome")
	}

	items := make([]ports.OutcomeCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutcomeCount{Outcome: row.Outcome, Count: row.Count})
	}
	return items, nil
}

func findPackage(db *gorm.DB, uuid string) (ports.PackageRecord, error) {
	var row model.Package
	if err := db.Where("uuid = ?", uuid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PackageRecord{}, ports.ErrPackageNotFound
		}
		return ports.PackageRecord{}, errs.Wrap(err, "query package by uuid")
	}
	return mapPackage(row), nil
}

func getPackageByID(db *gorm.DB, id uint64) (ports.PackageRecord, error) {
	var row model.Package
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PackageRecord{}, ports.ErrPackageNotFound
		}
		return ports.PackageRecord{}, errs.Wrap(err, "query package by id")
	}
	return mapPackage(row), nil
}

func getReportByID(db *gorm.DB, id uint64) (model.Report, error) {
	var row model.Report
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Report{}, ports.ErrReportNotFound
		}
		return model.Report{}, errs.Wrap(err, "query report by id")
	}
	return row, nil
}

func packageUUIDs(db *gorm.DB, rows []model.Report) (map[uint64]string, error) {
	ids := make([]uint64, 0, len(rows))
	seen := make(map[uint64]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.PackageID]; ok {
			continue
		}
		seen[row.PackageID] = struct{}{}
		ids = append(ids, row.PackageID)
	}

	var packages []model.Package
	if err := db.Where("id IN ?", ids).Find(&packages).Error; err != nil {
		return nil, errs.Wrap(err, "query packages")
	}

	out := make(map[uint64]string, len(packages))
	for _, pkg := range packages {
		out[pkg.ID] = pkg.UUID
	}
	return out, nil
}

func mapPackage(row model.Package) ports.PackageRecord {
	return ports.PackageRecord{
		ID:        row.ID,
		UUID:      row.UUID,
		CreatedAt: row.CreatedAt,
	}
}

func mapReport(row model.Report, packageUUID string) ports.ReportRecord {
	return ports.ReportRecord{
		ID:             row.ID,
		PackageID:      row.PackageID,
		PackageUUID:    packageUUID,
		SessionID:      row.SessionID,
		Begun:          row.Begun,
		Ended:          row.Ended,
		Outcome:        row.Outcome,
		DeliveryStatus: row.DeliveryStatus,
		Message:        row.Message,
		Report:         row.Report,
	}
}
