package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"washpulse/internal/config"
	"washpulse/internal/infrastructure"
	"washpulse/pkg/contracts/domain"
)

// Loader pulls the three fact datasets from an open store connection and
// normalizes the rows into domain records.
type Loader struct {
	db      *sql.DB
	source  string
	timeout time.Duration
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewLoader builds a loader over a connected store. queryTimeout bounds each
// dataset query; zero disables the bound.
func NewLoader(st *Store, queryTimeout time.Duration, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:      st.DB(),
		source:  st.Source(),
		timeout: queryTimeout,
		logger:  logger,
		metrics: metrics,
	}
}

// LoadSnapshot loads all three datasets and assembles them into a snapshot.
// A dataset that fails to load is recorded as a LoadIssue and left empty;
// the snapshot itself is always returned so downstream stages can degrade
// to a "no data" state instead of propagating a store fault.
func (l *Loader) LoadSnapshot(ctx context.Context) *domain.Snapshot {
	snap := &domain.Snapshot{
		Source:   l.source,
		LoadedAt: time.Now().UTC(),
	}

	start := time.Now()
	wash, dropped, err := l.LoadWashRecords(ctx)
	infrastructure.RecordLoad(ctx, l.metrics, string(domain.DatasetWash), l.source, len(wash), dropped, time.Since(start), err)
	if err != nil {
		snap.Issues = append(snap.Issues, domain.LoadIssue{Dataset: domain.DatasetWash, Message: err.Error()})
		infrastructure.RecordError(ctx, err)
		l.logger.ErrorContext(ctx, "wash dataset load failed", "source", l.source, "error", err.Error())
	} else {
		snap.Wash = wash
	}

	start = time.Now()
	subs, dropped, err := l.LoadSubscriptionRecords(ctx)
	infrastructure.RecordLoad(ctx, l.metrics, string(domain.DatasetSubscriptions), l.source, len(subs), dropped, time.Since(start), err)
	if err != nil {
		snap.Issues = append(snap.Issues, domain.LoadIssue{Dataset: domain.DatasetSubscriptions, Message: err.Error()})
		infrastructure.RecordError(ctx, err)
		l.logger.ErrorContext(ctx, "subscription dataset load failed", "source", l.source, "error", err.Error())
	} else {
		snap.Subscriptions = subs
	}

	start = time.Now()
	sales, schema, dropped, err := l.LoadSalesRecords(ctx)
	infrastructure.RecordLoad(ctx, l.metrics, string(domain.DatasetSales), l.source, len(sales), dropped, time.Since(start), err)
	if err != nil {
		snap.Issues = append(snap.Issues, domain.LoadIssue{Dataset: domain.DatasetSales, Message: err.Error()})
		infrastructure.RecordError(ctx, err)
		l.logger.ErrorContext(ctx, "sales dataset load failed", "source", l.source, "error", err.Error())
	} else {
		snap.Sales = sales
		snap.SalesSchema = schema
	}

	infrastructure.AddSpanEvent(ctx, "snapshot.loaded", map[string]interface{}{
		"source":               l.source,
		"wash_records":         len(snap.Wash),
		"subscription_records": len(snap.Subscriptions),
		"sales_records":        len(snap.Sales),
		"issues":               len(snap.Issues),
	})
	l.logger.InfoContext(ctx, "snapshot loaded",
		"source", l.source,
		"wash_records", len(snap.Wash),
		"subscription_records", len(snap.Subscriptions),
		"sales_records", len(snap.Sales),
		"club_tier_revenue", snap.SalesSchema.ClubTierRevenue,
		"issues", len(snap.Issues))
	return snap
}

// LoadWashRecords returns every wash count row with derived columns computed.
// The second return value counts rows dropped for an unusable site or date key.
func (l *Loader) LoadWashRecords(ctx context.Context) ([]domain.WashRecord, int, error) {
	ctx, cancel := l.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT site_id, date_key, name, count, rewash_count FROM %s ORDER BY site_id, date_key",
		config.TableWashCounts)
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", config.TableWashCounts, err)
	}
	defer rows.Close()

	var records []domain.WashRecord
	dropped := 0
	for rows.Next() {
		var (
			siteID   sql.NullString
			dateKey  sql.NullInt64
			washType sql.NullString
			count    sql.NullInt64
			rewash   sql.NullInt64
		)
		if err := rows.Scan(&siteID, &dateKey, &washType, &count, &rewash); err != nil {
			return nil, dropped, fmt.Errorf("scan %s: %w", config.TableWashCounts, err)
		}

		date, ok := parseDateKey(dateKey)
		if !ok || !siteID.Valid || siteID.String == "" {
			dropped++
			continue
		}

		rec := domain.WashRecord{
			SiteID:      siteID.String,
			Date:        date,
			WashType:    washType.String,
			Count:       int(count.Int64),
			RewashCount: int(rewash.Int64),
		}
		rec.ComputeDerived()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dropped, fmt.Errorf("read %s: %w", config.TableWashCounts, err)
	}
	return records, dropped, nil
}

// LoadSubscriptionRecords returns every daily subscription counter row with
// derived columns computed, plus the dropped row count.
func (l *Loader) LoadSubscriptionRecords(ctx context.Context) ([]domain.SubscriptionRecord, int, error) {
	ctx, cancel := l.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT site_id, date_key, active_count, created_count, canceled_count, trial_count, recurring_count, ending_count FROM %s ORDER BY site_id, date_key",
		config.TableSubscriptionFacts)
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", config.TableSubscriptionFacts, err)
	}
	defer rows.Close()

	var records []domain.SubscriptionRecord
	dropped := 0
	for rows.Next() {
		var (
			siteID    sql.NullString
			dateKey   sql.NullInt64
			active    sql.NullInt64
			created   sql.NullInt64
			canceled  sql.NullInt64
			trial     sql.NullInt64
			recurring sql.NullInt64
			ending    sql.NullInt64
		)
		if err := rows.Scan(&siteID, &dateKey, &active, &created, &canceled, &trial, &recurring, &ending); err != nil {
			return nil, dropped, fmt.Errorf("scan %s: %w", config.TableSubscriptionFacts, err)
		}

		date, ok := parseDateKey(dateKey)
		if !ok || !siteID.Valid || siteID.String == "" {
			dropped++
			continue
		}

		rec := domain.SubscriptionRecord{
			SiteID:         siteID.String,
			Date:           date,
			ActiveCount:    int(active.Int64),
			CreatedCount:   int(created.Int64),
			CanceledCount:  int(canceled.Int64),
			TrialCount:     int(trial.Int64),
			RecurringCount: int(recurring.Int64),
			EndingCount:    int(ending.Int64),
		}
		rec.ComputeDerived()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dropped, fmt.Errorf("read %s: %w", config.TableSubscriptionFacts, err)
	}
	return records, dropped, nil
}

// LoadSalesRecords returns every sales/expense row plus the schema the store
// actually served. The sales table is read by column name rather than a fixed
// column list because older schema versions lack the club tier revenue
// columns; absent columns read as zero and the schema flags report what was
// present so the aggregation layer can fall back accordingly.
func (l *Loader) LoadSalesRecords(ctx context.Context) ([]domain.SalesRecord, domain.SalesSchema, int, error) {
	ctx, cancel := l.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY site_id, date_key", config.TableSalesExpense)
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.SalesSchema{}, 0, fmt.Errorf("query %s: %w", config.TableSalesExpense, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, domain.SalesSchema{}, 0, fmt.Errorf("columns %s: %w", config.TableSalesExpense, err)
	}
	rd := newRowReader(cols)

	schema := domain.SalesSchema{
		ClubTierRevenue: rd.has("gross_club_payments_quality") &&
			rd.has("gross_club_payments_works") &&
			rd.has("gross_club_payments_ultimate") &&
			rd.has("gross_club_payments_super"),
	}

	var records []domain.SalesRecord
	dropped := 0
	for rows.Next() {
		if err := rows.Scan(rd.dest...); err != nil {
			return nil, schema, dropped, fmt.Errorf("scan %s: %w", config.TableSalesExpense, err)
		}

		key, ok := rd.dateKey()
		if !ok {
			dropped++
			continue
		}
		date, ok := parseDateKey(sql.NullInt64{Int64: key, Valid: true})
		siteID := rd.text("site_id")
		if !ok || siteID == "" {
			dropped++
			continue
		}

		records = append(records, domain.SalesRecord{
			SiteID:  siteID,
			Date:    date,
			Revenue: rd.float("revenue"),

			ExpenseTotal: rd.float("expense_total"),

			CashSales:       rd.float("cash_sales"),
			CreditCardSales: rd.float("credit_card_sales"),
			ClubAndPPWSales: rd.float("club_and_ppw_sales"),
			GiftCards:       rd.float("gift_cards"),
			WeeksOpen:       rd.float("weeks_open"),

			GrossPPWPaymentsQuality:  rd.float("gross_ppw_payments_quality"),
			GrossPPWPaymentsWorks:    rd.float("gross_ppw_payments_works"),
			GrossPPWPaymentsUltimate: rd.float("gross_ppw_payments_ultimate"),
			GrossPPWPaymentsSuper:    rd.float("gross_ppw_payments_super"),
			GrossPPWRefundsQuality:   rd.float("gross_ppw_refunds_quality"),
			GrossPPWRefundsWorks:     rd.float("gross_ppw_refunds_works"),
			GrossPPWRefundsUltimate:  rd.float("gross_ppw_refunds_ultimate"),
			GrossPPWRefundsSuper:     rd.float("gross_ppw_refunds_super"),

			GrossClubPaymentsQuality:  rd.float("gross_club_payments_quality"),
			GrossClubPaymentsWorks:    rd.float("gross_club_payments_works"),
			GrossClubPaymentsUltimate: rd.float("gross_club_payments_ultimate"),
			GrossClubPaymentsSuper:    rd.float("gross_club_payments_super"),
			GrossClubRefundsQuality:   rd.float("gross_club_refunds_quality"),
			GrossClubRefundsWorks:     rd.float("gross_club_refunds_works"),
			GrossClubRefundsUltimate:  rd.float("gross_club_refunds_ultimate"),
			GrossClubRefundsSuper:     rd.float("gross_club_refunds_super"),

			PPWQualityCount:  rd.integer("ppw_quality_count"),
			PPWWorksCount:    rd.integer("ppw_works_count"),
			PPWUltimateCount: rd.integer("ppw_ultimate_count"),
			PPWSuperCount:    rd.integer("ppw_super_count"),

			ClubQualityCount:  rd.integer("club_quality_count"),
			ClubWorksCount:    rd.integer("club_works_count"),
			ClubUltimateCount: rd.integer("club_ultimate_count"),
			ClubSuperCount:    rd.integer("club_super_count"),

			SingleWashQualityCount:  rd.integer("single_wash_quality_count"),
			SingleWashWorksCount:    rd.integer("single_wash_works_count"),
			SingleWashUltimateCount: rd.integer("single_wash_ultimate_count"),
			SingleWashSuperCount:    rd.integer("single_wash_super_count"),

			WeeklySubCreditCardFees: rd.float("wkly_sub_credit_card_fees"),
			TechnologyFee:           rd.float("technology_fee"),
			BrandDevelopmentFee:     rd.float("brand_development_fee"),
			RoyaltyFee:              rd.float("royalty_fee"),
			FeeAdjustments:          rd.float("fee_adjustments"),
			RadarFee:                rd.float("radar_fee_amt"),
			PreAuthFee:              rd.float("pre_auth_fee_amt"),
			VolumeBillingFee:        rd.float("volume_billing_fee_amt"),
			PayoutFee:               rd.float("payout_fee_amt"),
			AutoCardUpdateFee:       rd.float("auto_card_update_fee_amt"),
			ActiveAccountBillingFee: rd.float("active_account_billing_fee_amt"),
			ActiveReaderFee:         rd.float("active_reader_fee_amt"),
			AppAdjustment:           rd.float("app_adjustment"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, schema, dropped, fmt.Errorf("read %s: %w", config.TableSalesExpense, err)
	}
	return records, schema, dropped, nil
}

func (l *Loader) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.timeout)
}

// parseDateKey converts an 8 digit YYYYMMDD key into a UTC calendar date.
// Keys with the wrong digit count or naming an impossible date are rejected
// so the caller can drop the row instead of failing the whole load.
func parseDateKey(key sql.NullInt64) (time.Time, bool) {
	if !key.Valid {
		return time.Time{}, false
	}
	v := key.Int64
	if v < 10000101 || v > 99991231 {
		return time.Time{}, false
	}
	year := int(v / 10000)
	month := time.Month(v / 100 % 100)
	day := int(v % 100)
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	date := domain.NewDate(year, month, day)
	if date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// rowReader scans rows by column name so optional columns can be absent.
// Values arrive as whatever the driver delivers (int64, float64, []byte,
// string); accessors coerce them, with NULL and missing both reading as zero.
type rowReader struct {
	idx  map[string]int
	vals []any
	dest []any
}

func newRowReader(cols []string) *rowReader {
	r := &rowReader{
		idx:  make(map[string]int, len(cols)),
		vals: make([]any, len(cols)),
		dest: make([]any, len(cols)),
	}
	for i, col := range cols {
		r.idx[strings.ToLower(col)] = i
		r.dest[i] = &r.vals[i]
	}
	return r
}

func (r *rowReader) has(col string) bool {
	_, ok := r.idx[col]
	return ok
}

func (r *rowReader) dateKey() (int64, bool) {
	i, ok := r.idx["date_key"]
	if !ok {
		return 0, false
	}
	switch v := r.vals[i].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (r *rowReader) float(col string) float64 {
	i, ok := r.idx[col]
	if !ok {
		return 0
	}
	switch v := r.vals[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (r *rowReader) integer(col string) int {
	i, ok := r.idx[col]
	if !ok {
		return 0
	}
	switch v := r.vals[i].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func (r *rowReader) text(col string) string {
	i, ok := r.idx[col]
	if !ok {
		return ""
	}
	switch v := r.vals[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}
