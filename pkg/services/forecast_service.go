package services

import (
	"sales-forecast-api/pkg/models"

	"github.com/shopspring/decimal"
)

// Regressor は (月, 商品コード) から正規化販売数を推定します。
type Regressor interface {
	Predict(month, productCode float64) float64
}

// ForecastService 学習済みモデルを最終観測月の先までロールフォワードします。
type ForecastService struct {
	horizon int
}

// NewForecastService 新しいForecastServiceを作成
func NewForecastService(horizon int) *ForecastService {
	return &ForecastService{horizon: horizon}
}

// Forecast は最終観測サンプルの翌月から horizon ヶ月分の販売数を予測します。
// 商品コードは全ステップで最終観測サンプルの値に固定したまま進めません（学習スキームと対）。
// 各予測値は逆正規化 → 0クランプ（販売数は負にならない） → 小数2桁丸めの順で整形します。
func (s *ForecastService) Forecast(model Regressor, last models.EncodedSample, params models.NormalizationParams) models.ForecastResult {
	months := make([]int, 0, s.horizon)
	quantities := make([]float64, 0, s.horizon)

	for i := 1; i <= s.horizon; i++ {
		month := last.Month + i
		raw := model.Predict(float64(month), float64(last.ProductCode))

		value := params.Denormalize(raw)
		if value < 0 {
			value = 0
		}
		rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()

		months = append(months, month)
		quantities = append(quantities, rounded)
	}

	return models.ForecastResult{Months: months, Quantities: quantities}
}
