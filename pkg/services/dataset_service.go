package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"sales-forecast-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// DatasetService はアップロードされた販売実績データセットを保持します。
// 読み込み成功時は既存データを置き換え、失敗時は直前のデータを保持します。
type DatasetService struct {
	mu      sync.RWMutex
	records []models.SalesRecord
}

// NewDatasetService 新しいDatasetServiceを作成
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// findIndex はヘッダー行から候補名のいずれかに一致する列インデックスを返します（大文字小文字を無視）。
func findIndex(header []string, candidates ...string) int {
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		for _, candidate := range candidates {
			if normalized == strings.ToLower(candidate) {
				return i
			}
		}
	}
	return -1
}

// cell は行の範囲外アクセスを空文字列として扱います。
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyRow 全セルが空の行かどうか
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRows はヘッダー付きの行列をSalesRecordの列に変換します。
func parseRows(rows [][]string) ([]models.SalesRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("ヘッダー行と少なくとも1行のデータが必要です")
	}

	header := rows[0]

	// 列インデックスを検出（エイリアスを許容、余分な列は無視）
	idIdx := findIndex(header, "id", "identifier")
	descIdx := findIndex(header, "short_desc", "short_description", "product", "product_name", "商品名")
	createdIdx := findIndex(header, "created", "creation_date", "date", "日付")
	soldIdx := findIndex(header, "total_sold", "sold", "quantity", "販売数")

	var missingCols []string
	if descIdx == -1 {
		missingCols = append(missingCols, "short_desc")
	}
	if createdIdx == -1 {
		missingCols = append(missingCols, "created")
	}
	if soldIdx == -1 {
		missingCols = append(missingCols, "total_sold")
	}
	if len(missingCols) > 0 {
		return nil, fmt.Errorf("必須列が見つかりません: %s", strings.Join(missingCols, ", "))
	}

	records := make([]models.SalesRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		records = append(records, models.SalesRecord{
			ID:        cell(row, idIdx),
			ShortDesc: cell(row, descIdx),
			Created:   cell(row, createdIdx),
			TotalSold: cell(row, soldIdx),
		})
	}

	return records, nil
}

// Load はアップロードされたファイルを読み込み、成功時にデータセットを置き換えます。
// .xlsx と .csv をファイル名のサフィックスで判別します。
func (s *DatasetService) Load(fileName string, r io.Reader) (int, error) {
	var rows [][]string

	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		f, err := excelize.OpenReader(r)
		if err != nil {
			parseErr := &models.CsvParseError{FileName: fileName, Err: err}
			log.Printf("❌ [データ読込] %v", parseErr)
			return 0, parseErr
		}
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			parseErr := &models.CsvParseError{FileName: fileName, Err: err}
			log.Printf("❌ [データ読込] %v", parseErr)
			return 0, parseErr
		}
	} else {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // 列数の揺れを許容
		var err error
		rows, err = reader.ReadAll()
		if err != nil {
			parseErr := &models.CsvParseError{FileName: fileName, Err: err}
			log.Printf("❌ [データ読込] %v", parseErr)
			return 0, parseErr
		}
	}

	records, err := parseRows(rows)
	if err != nil {
		parseErr := &models.CsvParseError{FileName: fileName, Err: err}
		log.Printf("❌ [データ読込] %v", parseErr)
		return 0, parseErr
	}

	// 成功時のみ既存データを置き換える
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	log.Printf("📦 [データ読込] %s から %d 件のレコードを読み込みました", fileName, len(records))
	return len(records), nil
}

// Records は読み込み済みレコードのコピーを返します（ファイル内の順序を保持）。
func (s *DatasetService) Records() []models.SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SalesRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ProductIndex は商品ラベルの重複を除いたソート済みの一覧を返します。
// ラベルを持たないレコードは除外します。取り込みのたびに全件再計算されます。
func (s *DatasetService) ProductIndex() []string {
	return ProductIndex(s.Records())
}

// ProductIndex 純粋関数版（レコード列 → ソート済みユニークラベル列）
func ProductIndex(records []models.SalesRecord) []string {
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, rec := range records {
		if rec.ShortDesc == "" || seen[rec.ShortDesc] {
			continue
		}
		seen[rec.ShortDesc] = true
		labels = append(labels, rec.ShortDesc)
	}
	sort.Strings(labels)
	return labels
}

// Filter は選択された商品ラベルに一致するレコードを順序を保って返します。
// 空のラベルは「フィルタなし」として全件を返します。
func (s *DatasetService) Filter(label string) []models.SalesRecord {
	records := s.Records()
	if label == "" {
		return records
	}
	filtered := make([]models.SalesRecord, 0)
	for _, rec := range records {
		if rec.ShortDesc == label {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
