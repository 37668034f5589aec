package models

// Raw dataset column names
const (
	ColHotel               = "hotel"
	ColIsCanceled          = "is_canceled"
	ColLeadTime            = "lead_time"
	ColArrivalYear         = "arrival_date_year"
	ColArrivalMonth        = "arrival_date_month"
	ColWeekendNights       = "stays_in_weekend_nights"
	ColWeekNights          = "stays_in_week_nights"
	ColAdults              = "adults"
	ColChildren            = "children"
	ColBabies              = "babies"
	ColCountry             = "country"
	ColMarketSegment       = "market_segment"
	ColDistributionChannel = "distribution_channel"
	ColDepositType         = "deposit_type"
	ColCustomerType        = "customer_type"
	ColAgent               = "agent"
	ColCompany             = "company"
	ColADR                 = "adr"
)

// RequiredColumns must be present in every input file and are never dropped
var RequiredColumns = []string{
	ColHotel,
	ColIsCanceled,
	ColLeadTime,
	ColMarketSegment,
	ColDistributionChannel,
	ColDepositType,
}

// NATokens are the raw cell values treated as missing
var NATokens = []string{"", "NA", "NaN", "NULL", "null", "<nil>"}

// IsMissing reports whether a raw cell value counts as missing
func IsMissing(v string) bool {
	for _, tok := range NATokens {
		if v == tok {
			return true
		}
	}
	return false
}

// IsRequired reports whether a column is part of the required schema
func IsRequired(col string) bool {
	for _, c := range RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}
