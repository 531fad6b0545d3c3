package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"washpulse/internal/config"
	"washpulse/pkg/contracts/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// InitSnapshot creates the snapshot database file if needed and brings its
// schema up to date.
func InitSnapshot(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	// Migrations get their own connection so the migrate driver can close it
	// without touching any reader connection.
	migrateDB, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open snapshot for migration: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// WriteSnapshot persists a warehouse pull to the local snapshot database so
// the snapshot strategy can serve it when the warehouse is unreachable. The
// data is written to a fresh temp file and renamed into place, so readers
// either see the previous snapshot or the new one, never a half write.
//
// Pulls with load issues are refused: overwriting the fallback with a partial
// pull would destroy the data the snapshot exists to preserve.
func WriteSnapshot(ctx context.Context, path string, snap *domain.Snapshot, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(snap.Issues) > 0 {
		return fmt.Errorf("refusing to persist snapshot with %d load issues", len(snap.Issues))
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stale snapshot temp file: %w", err)
	}

	if err := writeSnapshotFile(ctx, tmp, snap); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("activate snapshot: %w", err)
	}

	logger.InfoContext(ctx, "snapshot persisted",
		"path", path,
		"source", snap.Source,
		"wash_records", len(snap.Wash),
		"subscription_records", len(snap.Subscriptions),
		"sales_records", len(snap.Sales),
		"club_tier_revenue", snap.SalesSchema.ClubTierRevenue)
	return nil
}

func writeSnapshotFile(ctx context.Context, path string, snap *domain.Snapshot) error {
	if err := InitSnapshot(path); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open snapshot temp file: %w", err)
	}
	defer db.Close()

	// The migrated base schema stops before the club tier revenue columns so
	// the loader's column probe keeps working against snapshots taken from
	// older warehouse schemas. A pull that carried the columns adds them here;
	// the temp file is freshly migrated, so they never pre-exist.
	if snap.SalesSchema.ClubTierRevenue {
		for _, col := range salesClubColumns {
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s REAL NOT NULL DEFAULT 0", config.TableSalesExpense, col)
			if _, err := db.ExecContext(ctx, alter); err != nil {
				return fmt.Errorf("add column %s: %w", col, err)
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot write: %w", err)
	}
	defer tx.Rollback()

	if err := insertWashRecords(ctx, tx, snap.Wash); err != nil {
		return err
	}
	if err := insertSubscriptionRecords(ctx, tx, snap.Subscriptions); err != nil {
		return err
	}
	if err := insertSalesRecords(ctx, tx, snap.Sales, snap.SalesSchema.ClubTierRevenue); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot write: %w", err)
	}
	return nil
}

func insertWashRecords(ctx context.Context, tx *sql.Tx, records []domain.WashRecord) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (site_id, date_key, name, count, rewash_count) VALUES (?, ?, ?, ?, ?)",
		config.TableWashCounts)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", config.TableWashCounts, err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if _, err := stmt.ExecContext(ctx,
			rec.SiteID, dateKeyOf(rec.Date), rec.WashType, rec.Count, rec.RewashCount); err != nil {
			return fmt.Errorf("insert %s row: %w", config.TableWashCounts, err)
		}
	}
	return nil
}

func insertSubscriptionRecords(ctx context.Context, tx *sql.Tx, records []domain.SubscriptionRecord) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (site_id, date_key, active_count, created_count, canceled_count, trial_count, recurring_count, ending_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		config.TableSubscriptionFacts)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", config.TableSubscriptionFacts, err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if _, err := stmt.ExecContext(ctx,
			rec.SiteID, dateKeyOf(rec.Date),
			rec.ActiveCount, rec.CreatedCount, rec.CanceledCount,
			rec.TrialCount, rec.RecurringCount, rec.EndingCount); err != nil {
			return fmt.Errorf("insert %s row: %w", config.TableSubscriptionFacts, err)
		}
	}
	return nil
}

// salesBaseColumns is the insert column order for the migrated sales schema;
// salesValues must produce values in exactly this order.
var salesBaseColumns = []string{
	"site_id",
	"date_key",
	"revenue",
	"expense_total",
	"cash_sales",
	"credit_card_sales",
	"club_and_ppw_sales",
	"gift_cards",
	"weeks_open",
	"gross_ppw_payments_quality",
	"gross_ppw_payments_works",
	"gross_ppw_payments_ultimate",
	"gross_ppw_payments_super",
	"gross_ppw_refunds_quality",
	"gross_ppw_refunds_works",
	"gross_ppw_refunds_ultimate",
	"gross_ppw_refunds_super",
	"ppw_quality_count",
	"ppw_works_count",
	"ppw_ultimate_count",
	"ppw_super_count",
	"club_quality_count",
	"club_works_count",
	"club_ultimate_count",
	"club_super_count",
	"single_wash_quality_count",
	"single_wash_works_count",
	"single_wash_ultimate_count",
	"single_wash_super_count",
	"wkly_sub_credit_card_fees",
	"technology_fee",
	"brand_development_fee",
	"royalty_fee",
	"fee_adjustments",
	"radar_fee_amt",
	"pre_auth_fee_amt",
	"volume_billing_fee_amt",
	"payout_fee_amt",
	"auto_card_update_fee_amt",
	"active_account_billing_fee_amt",
	"active_reader_fee_amt",
	"app_adjustment",
}

// salesClubColumns are the tier revenue columns only newer warehouse schemas
// carry. They are added to the snapshot only when the pull had them.
var salesClubColumns = []string{
	"gross_club_payments_quality",
	"gross_club_payments_works",
	"gross_club_payments_ultimate",
	"gross_club_payments_super",
	"gross_club_refunds_quality",
	"gross_club_refunds_works",
	"gross_club_refunds_ultimate",
	"gross_club_refunds_super",
}

func insertSalesRecords(ctx context.Context, tx *sql.Tx, records []domain.SalesRecord, club bool) error {
	cols := salesBaseColumns
	if club {
		cols = append(append([]string{}, salesBaseColumns...), salesClubColumns...)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		config.TableSalesExpense, strings.Join(cols, ", "), placeholders(len(cols)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", config.TableSalesExpense, err)
	}
	defer stmt.Close()

	for i := range records {
		if _, err := stmt.ExecContext(ctx, salesValues(&records[i], club)...); err != nil {
			return fmt.Errorf("insert %s row: %w", config.TableSalesExpense, err)
		}
	}
	return nil
}

func salesValues(rec *domain.SalesRecord, club bool) []any {
	vals := []any{
		rec.SiteID,
		dateKeyOf(rec.Date),
		rec.Revenue,
		rec.ExpenseTotal,
		rec.CashSales,
		rec.CreditCardSales,
		rec.ClubAndPPWSales,
		rec.GiftCards,
		rec.WeeksOpen,
		rec.GrossPPWPaymentsQuality,
		rec.GrossPPWPaymentsWorks,
		rec.GrossPPWPaymentsUltimate,
		rec.GrossPPWPaymentsSuper,
		rec.GrossPPWRefundsQuality,
		rec.GrossPPWRefundsWorks,
		rec.GrossPPWRefundsUltimate,
		rec.GrossPPWRefundsSuper,
		rec.PPWQualityCount,
		rec.PPWWorksCount,
		rec.PPWUltimateCount,
		rec.PPWSuperCount,
		rec.ClubQualityCount,
		rec.ClubWorksCount,
		rec.ClubUltimateCount,
		rec.ClubSuperCount,
		rec.SingleWashQualityCount,
		rec.SingleWashWorksCount,
		rec.SingleWashUltimateCount,
		rec.SingleWashSuperCount,
		rec.WeeklySubCreditCardFees,
		rec.TechnologyFee,
		rec.BrandDevelopmentFee,
		rec.RoyaltyFee,
		rec.FeeAdjustments,
		rec.RadarFee,
		rec.PreAuthFee,
		rec.VolumeBillingFee,
		rec.PayoutFee,
		rec.AutoCardUpdateFee,
		rec.ActiveAccountBillingFee,
		rec.ActiveReaderFee,
		rec.AppAdjustment,
	}
	if club {
		vals = append(vals,
			rec.GrossClubPaymentsQuality,
			rec.GrossClubPaymentsWorks,
			rec.GrossClubPaymentsUltimate,
			rec.GrossClubPaymentsSuper,
			rec.GrossClubRefundsQuality,
			rec.GrossClubRefundsWorks,
			rec.GrossClubRefundsUltimate,
			rec.GrossClubRefundsSuper)
	}
	return vals
}

func placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = "?"
	}
	return strings.Join(out, ", ")
}

// dateKeyOf converts a calendar date back into its 8 digit YYYYMMDD key.
func dateKeyOf(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}
