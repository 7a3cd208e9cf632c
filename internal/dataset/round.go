package dataset

import "github.com/shopspring/decimal"

// Round rounds half away from zero at the given decimal places
// float64 → decimal 변환으로 0.125 같은 경계값의 이진 오차를 피함
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Ratio returns round(num/den, places), or 0 when den is 0
func Ratio(num, den float64, places int32) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromFloat(num).
		Div(decimal.NewFromFloat(den)).
		Round(places).
		InexactFloat64()
}
