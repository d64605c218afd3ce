package models

// SalesRecord represents one row of an uploaded sales history file
type SalesRecord struct {
	ID        string `json:"id"`         // 識別子（診断ログでのみ使用）
	ShortDesc string `json:"short_desc"` // 商品ラベル
	Created   string `json:"created"`    // 販売日（"MM/DD" 形式、月は2番目のセグメント）
	TotalSold string `json:"total_sold"` // 販売数（数値文字列）
}

// EncodedSample 前処理済みの学習サンプル1件
type EncodedSample struct {
	Month              int     `json:"month"`               // 販売日から抽出した月
	ProductCode        int     `json:"product_code"`        // 初出順に割り当てた商品コード
	NormalizedQuantity float64 `json:"normalized_quantity"` // [0,1]に正規化した販売数
}

// NormalizationParams 正規化の逆変換に必要なmin/max
type NormalizationParams struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Denormalize は正規化された値を実数量に戻します。
func (p NormalizationParams) Denormalize(v float64) float64 {
	return v*(p.Max-p.Min) + p.Min
}

// ForecastResult 月オフセット1..Nに対応する予測販売数の列
type ForecastResult struct {
	Months     []int     `json:"months"`     // 最終観測月+1 から始まる月（12を超えても折り返さない）
	Quantities []float64 `json:"quantities"` // 逆正規化・0クランプ・小数2桁丸め済み
}

// SalesStatistics 実績系列の集計値
type SalesStatistics struct {
	AverageSales float64 `json:"average_sales"`
	MaxSales     float64 `json:"max_sales"`
	MinSales     float64 `json:"min_sales"`
	StandardDev  float64 `json:"standard_deviation"`
	TotalSales   float64 `json:"total_sales"`
}

// ChartData 1本の月軸に整列した実績/予測の2系列
// 先頭の "Month 0" ラベルは目盛り合わせ用で、どちらの系列にもデータ点を持ちません。
type ChartData struct {
	Labels   []string   `json:"labels"`
	Actual   []*float64 `json:"actual"`   // 実績が無い位置はnull
	Forecast []*float64 `json:"forecast"` // 予測が無い位置はnull
}

// PredictRequest 予測アクションのリクエスト
type PredictRequest struct {
	Product string `json:"product"` // 空文字列は「フィルタなし」
}
