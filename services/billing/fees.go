package billing

import (
	"fmt"
	"math"
	"time"

	"lejio/models"
)

// Deductible-insurance price caps, in øre.
const (
	insuranceDailyRate  = 49_00
	insuranceMonthlyCap = 400_00
)

// RentalFacts are the raw inputs to a settlement computation. All monetary
// values are in øre.
type RentalFacts struct {
	StartDate           time.Time     `json:"start_date"`
	EndDate             time.Time     `json:"end_date"`
	TotalPrice          int64         `json:"total_price"`
	DepositAmount       int64         `json:"deposit_amount"`
	InsuranceSelected   bool          `json:"insurance_selected"`
	InsurancePrice      int64         `json:"insurance_price"`
	KmOverageFee        int64         `json:"km_overage_fee"`
	FuelFee             int64         `json:"fuel_fee"`
	ExteriorCleaningFee int64         `json:"exterior_cleaning_fee"`
	InteriorCleaningFee int64         `json:"interior_cleaning_fee"`
	Fines               []models.Fine `json:"fines,omitempty"`
}

// RentalDays returns the day count of a rental period, inclusive of both
// boundary days.
func RentalDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidDateRange, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	return days, nil
}

// InsuranceFee returns the deductible-insurance charge for a rental: never
// more than 49 kr/day, never more than 400 kr per started month, and never
// more than the price quoted at booking time.
func InsuranceFee(days int, quotedPrice int64) int64 {
	if days <= 0 || quotedPrice <= 0 {
		return 0
	}
	raw := int64(days) * insuranceDailyRate
	months := int64((days + 29) / 30)
	capped := min(raw, months*insuranceMonthlyCap)
	return min(quotedPrice, capped)
}

// ComputeSettlement reconciles the extra charges of a finished rental
// against the held deposit. Pure: no I/O, deterministic.
//
// The outputs hold the reconciliation invariant exactly:
// deposit + amountDueFromRenter - depositRefund == totalCharges.
func ComputeSettlement(facts RentalFacts) (models.Settlement, error) {
	days, err := RentalDays(facts.StartDate, facts.EndDate)
	if err != nil {
		return models.Settlement{}, err
	}

	for name, v := range map[string]int64{
		"total_price":           facts.TotalPrice,
		"deposit_amount":        facts.DepositAmount,
		"insurance_price":       facts.InsurancePrice,
		"km_overage_fee":        facts.KmOverageFee,
		"fuel_fee":              facts.FuelFee,
		"exterior_cleaning_fee": facts.ExteriorCleaningFee,
		"interior_cleaning_fee": facts.InteriorCleaningFee,
	} {
		if v < 0 {
			return models.Settlement{}, fmt.Errorf("%w: %s is %d", ErrNegativeAmount, name, v)
		}
	}

	var insuranceFee int64
	if facts.InsuranceSelected {
		insuranceFee = InsuranceFee(days, facts.InsurancePrice)
	}
	rentalIncome := facts.TotalPrice - insuranceFee
	if rentalIncome < 0 {
		return models.Settlement{}, fmt.Errorf("%w: rental income is %d", ErrNegativeAmount, rentalIncome)
	}

	var finesTotal int64
	for _, fine := range facts.Fines {
		if fine.Total < 0 {
			return models.Settlement{}, fmt.Errorf("%w: fine %s is %d", ErrNegativeAmount, fine.Type, fine.Total)
		}
		finesTotal += fine.Total
	}

	totalCharges := facts.KmOverageFee + facts.FuelFee +
		facts.ExteriorCleaningFee + facts.InteriorCleaningFee + finesTotal

	return models.Settlement{
		RentalPrice:         rentalIncome,
		KmOverageFee:        facts.KmOverageFee,
		FuelFee:             facts.FuelFee,
		ExteriorCleaningFee: facts.ExteriorCleaningFee,
		InteriorCleaningFee: facts.InteriorCleaningFee,
		FinesTotal:          finesTotal,
		TotalCharges:        totalCharges,
		DepositAmount:       facts.DepositAmount,
		DepositRefund:       max(0, facts.DepositAmount-totalCharges),
		AmountDueFromRenter: max(0, totalCharges-facts.DepositAmount),
		Fines:               facts.Fines,
	}, nil
}
