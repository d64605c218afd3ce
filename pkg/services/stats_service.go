package services

import (
	"math"

	"sales-forecast-api/pkg/models"
)

// Summarize は実績系列の集計値を計算します。
func Summarize(values []float64) models.SalesStatistics {
	if len(values) == 0 {
		return models.SalesStatistics{}
	}

	var total, maxSales, minSales float64
	for i, v := range values {
		total += v
		if i == 0 {
			maxSales = v
			minSales = v
		} else {
			if v > maxSales {
				maxSales = v
			}
			if v < minSales {
				minSales = v
			}
		}
	}

	avg := total / float64(len(values))

	// 標準偏差を計算
	var variance float64
	for _, v := range values {
		variance += math.Pow(v-avg, 2)
	}
	variance /= float64(len(values))

	return models.SalesStatistics{
		AverageSales: avg,
		MaxSales:     maxSales,
		MinSales:     minSales,
		StandardDev:  math.Sqrt(variance),
		TotalSales:   total,
	}
}
