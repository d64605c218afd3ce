package services

import (
	"log"
	"strconv"
	"strings"

	"sales-forecast-api/pkg/models"
)

// EncoderService は販売実績レコードを学習用の特徴量に変換します。
type EncoderService struct{}

// NewEncoderService 新しいEncoderServiceを作成
func NewEncoderService() *EncoderService {
	return &EncoderService{}
}

// EncodeResult 1回の前処理の結果。
// ProductCodes の割り当ては呼び出し内でのみ有効で、永続化されません。
type EncodeResult struct {
	Samples      []models.EncodedSample
	Params       models.NormalizationParams
	ProductCodes map[string]int // ラベル → 初出順コード (0..k-1)
}

// parseMonth は "MM/DD" 形式の日付から月（2番目のセグメント）を取り出します。
// セグメント数が2でない場合や整数に解釈できない場合は ok=false を返します。
func parseMonth(created string) (int, bool) {
	segments := strings.Split(created, "/")
	if len(segments) != 2 {
		return 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(segments[1]))
	if err != nil {
		return 0, false
	}
	return month, true
}

// Encode はレコード列を (EncodedSample列, 正規化パラメータ, 商品コード表) に変換します。
//   - min/max は入力中の解釈可能な販売数すべてから計算します。
//   - 日付または販売数が不正な行は警告ログを出してスキップし、処理を継続します。
//   - 全行の販売数が等しい場合、正規化値はすべて0になります。
//   - 出力はスキップ後も入力順を保持します。
func (s *EncoderService) Encode(records []models.SalesRecord) (*EncodeResult, error) {
	if len(records) == 0 {
		return nil, &models.EmptyDatasetError{}
	}

	// min/max の対象プール（解釈できない値はプールからのみ除外）
	min, max := 0.0, 0.0
	poolSize := 0
	for _, rec := range records {
		q, err := strconv.ParseFloat(strings.TrimSpace(rec.TotalSold), 64)
		if err != nil {
			continue
		}
		if poolSize == 0 {
			min, max = q, q
		} else {
			if q < min {
				min = q
			}
			if q > max {
				max = q
			}
		}
		poolSize++
	}
	if poolSize == 0 {
		// min/max が定義できない（NaN/Infを作らず明示的にエラーにする）
		return nil, &models.EmptyDatasetError{}
	}

	allEqual := min == max
	codes := make(map[string]int)
	samples := make([]models.EncodedSample, 0, len(records))

	for _, rec := range records {
		month, ok := parseMonth(rec.Created)
		if !ok {
			log.Printf("⚠️ [前処理] %v", &models.InvalidRowError{RecordID: rec.ID, Field: "created", Value: rec.Created})
			continue
		}

		quantity, err := strconv.ParseFloat(strings.TrimSpace(rec.TotalSold), 64)
		if err != nil {
			log.Printf("⚠️ [前処理] %v", &models.InvalidRowError{RecordID: rec.ID, Field: "total_sold", Value: rec.TotalSold})
			continue
		}

		code, exists := codes[rec.ShortDesc]
		if !exists {
			code = len(codes)
			codes[rec.ShortDesc] = code
		}

		normalized := 0.0
		if !allEqual {
			normalized = (quantity - min) / (max - min)
		}

		samples = append(samples, models.EncodedSample{
			Month:              month,
			ProductCode:        code,
			NormalizedQuantity: normalized,
		})
	}

	return &EncodeResult{
		Samples:      samples,
		Params:       models.NormalizationParams{Min: min, Max: max},
		ProductCodes: codes,
	}, nil
}
