// Package calculator computes the pairwise settlement for a trip.
// It is pure: no storage, no clock, no I/O.
package calculator

import (
	"fmt"
	"math"
	"strings"

	"github.com/duotrip/duotrip/internal/models"
)

// settledTolerance is the absolute threshold below which the two members are
// considered even. It absorbs floating-point noise from repeated rounding;
// it is not a business tolerance.
const settledTolerance = 0.01

// CalculateBalance computes who owes whom across the expense set, assuming
// every expense is split 50/50 between memberA and memberB.
//
// Expenses paid by neither member are excluded from every sum and reported
// through the returned error (wrapping models.ErrAnomaly). The balance is
// still computed and returned in that case, so callers can present it while
// surfacing the integrity violation.
//
// The algorithm is scoped to exactly two participants; it is the reason the
// membership cap exists. Generalizing to N would need debt netting and a
// different shape entirely.
func CalculateBalance(expenses []models.Expense, memberA, memberB string) (*models.Balance, error) {
	var totalA, totalB float64
	byCategory := make(map[models.Category]models.CategoryTotals)
	var strays []string

	for _, e := range expenses {
		switch e.PaidBy {
		case memberA:
			totalA += e.Amount
		case memberB:
			totalB += e.Amount
		default:
			strays = append(strays, e.ID)
			continue
		}

		cat := byCategory[e.Category]
		if e.PaidBy == memberA {
			cat.TotalA += e.Amount
		} else {
			cat.TotalB += e.Amount
		}
		cat.Total += e.Amount
		byCategory[e.Category] = cat
	}

	grandTotal := totalA + totalB
	fairShare := grandTotal / 2
	net := totalA - fairShare // >0 → B owes A

	debtor, creditor := memberA, memberB
	if net > 0 {
		debtor, creditor = memberB, memberA
	}

	for c, cat := range byCategory {
		cat.TotalA = round2(cat.TotalA)
		cat.TotalB = round2(cat.TotalB)
		cat.Total = round2(cat.Total)
		byCategory[c] = cat
	}

	// Settled is judged on the exact net, before rounding: a half-cent
	// difference is even money though Amount rounds it up to 0.01.
	balance := &models.Balance{
		TotalA:     round2(totalA),
		TotalB:     round2(totalB),
		GrandTotal: round2(grandTotal),
		FairShare:  round2(fairShare),
		Debtor:     debtor,
		Creditor:   creditor,
		Amount:     round2(math.Abs(net)),
		IsSettled:  math.Abs(net) < settledTolerance,
		ByCategory: byCategory,
	}

	if len(strays) > 0 {
		return balance, fmt.Errorf("%w: expense(s) %s", models.ErrAnomaly, strings.Join(strays, ", "))
	}
	return balance, nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
