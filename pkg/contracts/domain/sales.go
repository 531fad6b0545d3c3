package domain

import (
	"time"
)

// Tier identifies a wash package level. The same four tiers are sold
// across the PPW, Club and single-wash programs.
type Tier string

const (
	TierQuality  Tier = "quality"
	TierWorks    Tier = "works"
	TierUltimate Tier = "ultimate"
	TierSuper    Tier = "super"
)

// Tiers lists all tiers in canonical display order.
var Tiers = []Tier{TierQuality, TierWorks, TierUltimate, TierSuper}

// SalesRecord represents one site's sales and expense figures for a single day.
// Monetary fields may be negative (refunds, adjustments); nothing is clamped.
type SalesRecord struct {
	SiteID  string    `json:"site_id" db:"site_id" validate:"required"`
	Date    time.Time `json:"date" db:"date" validate:"required"`
	Revenue float64   `json:"revenue" db:"revenue"`

	ExpenseTotal float64 `json:"expense_total" db:"expense_total"`

	CashSales       float64 `json:"cash_sales" db:"cash_sales"`
	CreditCardSales float64 `json:"credit_card_sales" db:"credit_card_sales"`
	ClubAndPPWSales float64 `json:"club_and_ppw_sales" db:"club_and_ppw_sales"`
	GiftCards       float64 `json:"gift_cards" db:"gift_cards"`
	WeeksOpen       float64 `json:"weeks_open" db:"weeks_open"`

	// PPW gross movement per tier. Revenue per tier is payments minus refunds.
	GrossPPWPaymentsQuality  float64 `json:"gross_ppw_payments_quality" db:"gross_ppw_payments_quality"`
	GrossPPWPaymentsWorks    float64 `json:"gross_ppw_payments_works" db:"gross_ppw_payments_works"`
	GrossPPWPaymentsUltimate float64 `json:"gross_ppw_payments_ultimate" db:"gross_ppw_payments_ultimate"`
	GrossPPWPaymentsSuper    float64 `json:"gross_ppw_payments_super" db:"gross_ppw_payments_super"`
	GrossPPWRefundsQuality   float64 `json:"gross_ppw_refunds_quality" db:"gross_ppw_refunds_quality"`
	GrossPPWRefundsWorks     float64 `json:"gross_ppw_refunds_works" db:"gross_ppw_refunds_works"`
	GrossPPWRefundsUltimate  float64 `json:"gross_ppw_refunds_ultimate" db:"gross_ppw_refunds_ultimate"`
	GrossPPWRefundsSuper     float64 `json:"gross_ppw_refunds_super" db:"gross_ppw_refunds_super"`

	// Club gross movement per tier. Only populated when the sales schema
	// version carries the club tier columns; see SalesSchema.
	GrossClubPaymentsQuality  float64 `json:"gross_club_payments_quality" db:"gross_club_payments_quality"`
	GrossClubPaymentsWorks    float64 `json:"gross_club_payments_works" db:"gross_club_payments_works"`
	GrossClubPaymentsUltimate float64 `json:"gross_club_payments_ultimate" db:"gross_club_payments_ultimate"`
	GrossClubPaymentsSuper    float64 `json:"gross_club_payments_super" db:"gross_club_payments_super"`
	GrossClubRefundsQuality   float64 `json:"gross_club_refunds_quality" db:"gross_club_refunds_quality"`
	GrossClubRefundsWorks     float64 `json:"gross_club_refunds_works" db:"gross_club_refunds_works"`
	GrossClubRefundsUltimate  float64 `json:"gross_club_refunds_ultimate" db:"gross_club_refunds_ultimate"`
	GrossClubRefundsSuper     float64 `json:"gross_club_refunds_super" db:"gross_club_refunds_super"`

	PPWQualityCount  int `json:"ppw_quality_count" db:"ppw_quality_count"`
	PPWWorksCount    int `json:"ppw_works_count" db:"ppw_works_count"`
	PPWUltimateCount int `json:"ppw_ultimate_count" db:"ppw_ultimate_count"`
	PPWSuperCount    int `json:"ppw_super_count" db:"ppw_super_count"`

	ClubQualityCount  int `json:"club_quality_count" db:"club_quality_count"`
	ClubWorksCount    int `json:"club_works_count" db:"club_works_count"`
	ClubUltimateCount int `json:"club_ultimate_count" db:"club_ultimate_count"`
	ClubSuperCount    int `json:"club_super_count" db:"club_super_count"`

	SingleWashQualityCount  int `json:"single_wash_quality_count" db:"single_wash_quality_count"`
	SingleWashWorksCount    int `json:"single_wash_works_count" db:"single_wash_works_count"`
	SingleWashUltimateCount int `json:"single_wash_ultimate_count" db:"single_wash_ultimate_count"`
	SingleWashSuperCount    int `json:"single_wash_super_count" db:"single_wash_super_count"`

	WeeklySubCreditCardFees float64 `json:"wkly_sub_credit_card_fees" db:"wkly_sub_credit_card_fees"`
	TechnologyFee           float64 `json:"technology_fee" db:"technology_fee"`
	BrandDevelopmentFee     float64 `json:"brand_development_fee" db:"brand_development_fee"`
	RoyaltyFee              float64 `json:"royalty_fee" db:"royalty_fee"`
	FeeAdjustments          float64 `json:"fee_adjustments" db:"fee_adjustments"`
	RadarFee                float64 `json:"radar_fee_amt" db:"radar_fee_amt"`
	PreAuthFee              float64 `json:"pre_auth_fee_amt" db:"pre_auth_fee_amt"`
	VolumeBillingFee        float64 `json:"volume_billing_fee_amt" db:"volume_billing_fee_amt"`
	PayoutFee               float64 `json:"payout_fee_amt" db:"payout_fee_amt"`
	AutoCardUpdateFee       float64 `json:"auto_card_update_fee_amt" db:"auto_card_update_fee_amt"`
	ActiveAccountBillingFee float64 `json:"active_account_billing_fee_amt" db:"active_account_billing_fee_amt"`
	ActiveReaderFee         float64 `json:"active_reader_fee_amt" db:"active_reader_fee_amt"`
	AppAdjustment           float64 `json:"app_adjustment" db:"app_adjustment"`
}

// SalesSchema describes which optional column groups the sales fact table
// provided at load time. Older schema versions lack the club tier revenue
// columns; the program split falls back to an estimate in that case.
type SalesSchema struct {
	ClubTierRevenue bool `json:"club_tier_revenue"`
}

// PPWPayments returns the gross PPW payments for a tier.
func (r *SalesRecord) PPWPayments(t Tier) float64 {
	switch t {
	case TierQuality:
		return r.GrossPPWPaymentsQuality
	case TierWorks:
		return r.GrossPPWPaymentsWorks
	case TierUltimate:
		return r.GrossPPWPaymentsUltimate
	case TierSuper:
		return r.GrossPPWPaymentsSuper
	}
	return 0
}

// PPWRefunds returns the gross PPW refunds for a tier.
func (r *SalesRecord) PPWRefunds(t Tier) float64 {
	switch t {
	case TierQuality:
		return r.GrossPPWRefundsQuality
	case TierWorks:
		return r.GrossPPWRefundsWorks
	case TierUltimate:
		return r.GrossPPWRefundsUltimate
	case TierSuper:
		return r.GrossPPWRefundsSuper
	}
	return 0
}

// ClubPayments returns the gross club payments for a tier. Zero when the
// schema does not carry club tier revenue.
func (r *SalesRecord) ClubPayments(t Tier) float64 {
	switch t {
	case TierQuality:
		return r.GrossClubPaymentsQuality
	case TierWorks:
		return r.GrossClubPaymentsWorks
	case TierUltimate:
		return r.GrossClubPaymentsUltimate
	case TierSuper:
		return r.GrossClubPaymentsSuper
	}
	return 0
}

// ClubRefunds returns the gross club refunds for a tier.
func (r *SalesRecord) ClubRefunds(t Tier) float64 {
	switch t {
	case TierQuality:
		return r.GrossClubRefundsQuality
	case TierWorks:
		return r.GrossClubRefundsWorks
	case TierUltimate:
		return r.GrossClubRefundsUltimate
	case TierSuper:
		return r.GrossClubRefundsSuper
	}
	return 0
}

// PPWCount returns the PPW wash count for a tier.
func (r *SalesRecord) PPWCount(t Tier) int {
	switch t {
	case TierQuality:
		return r.PPWQualityCount
	case TierWorks:
		return r.PPWWorksCount
	case TierUltimate:
		return r.PPWUltimateCount
	case TierSuper:
		return r.PPWSuperCount
	}
	return 0
}

// ClubCount returns the club wash count for a tier.
func (r *SalesRecord) ClubCount(t Tier) int {
	switch t {
	case TierQuality:
		return r.ClubQualityCount
	case TierWorks:
		return r.ClubWorksCount
	case TierUltimate:
		return r.ClubUltimateCount
	case TierSuper:
		return r.ClubSuperCount
	}
	return 0
}

// SingleWashCount returns the single-wash count for a tier.
func (r *SalesRecord) SingleWashCount(t Tier) int {
	switch t {
	case TierQuality:
		return r.SingleWashQualityCount
	case TierWorks:
		return r.SingleWashWorksCount
	case TierUltimate:
		return r.SingleWashUltimateCount
	case TierSuper:
		return r.SingleWashSuperCount
	}
	return 0
}

// FeeColumns lists the expense fee columns in their canonical order. The
// expense breakdown aggregation iterates these names; they double as the
// stable column names on the export surface.
var FeeColumns = []string{
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

// FeeAmount returns the value of a fee column by its canonical name.
func (r *SalesRecord) FeeAmount(column string) float64 {
	switch column {
	case "wkly_sub_credit_card_fees":
		return r.WeeklySubCreditCardFees
	case "technology_fee":
		return r.TechnologyFee
	case "brand_development_fee":
		return r.BrandDevelopmentFee
	case "royalty_fee":
		return r.RoyaltyFee
	case "fee_adjustments":
		return r.FeeAdjustments
	case "radar_fee_amt":
		return r.RadarFee
	case "pre_auth_fee_amt":
		return r.PreAuthFee
	case "volume_billing_fee_amt":
		return r.VolumeBillingFee
	case "payout_fee_amt":
		return r.PayoutFee
	case "auto_card_update_fee_amt":
		return r.AutoCardUpdateFee
	case "active_account_billing_fee_amt":
		return r.ActiveAccountBillingFee
	case "active_reader_fee_amt":
		return r.ActiveReaderFee
	case "app_adjustment":
		return r.AppAdjustment
	}
	return 0
}
