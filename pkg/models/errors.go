package models

import "fmt"

// CsvParseError はアップロードファイルの解析失敗を表します。
// アップロードは中止され、直前に読み込み済みのデータセットは保持されます。
type CsvParseError struct {
	FileName string
	Err      error
}

func (e *CsvParseError) Error() string {
	return fmt.Sprintf("ファイル解析エラー (%s): %v", e.FileName, e.Err)
}

func (e *CsvParseError) Unwrap() error {
	return e.Err
}

// InvalidRowError は行単位の不正（日付または販売数）を表します。
// 該当行はスキップされ、処理は継続します。
type InvalidRowError struct {
	RecordID string
	Field    string
	Value    string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("不正な行 (id=%s): %s=%q を解釈できません", e.RecordID, e.Field, e.Value)
}

// EmptyDatasetError はフィルタ後のデータが空、またはmin/maxを計算できる
// 販売数が1件も無い場合を表します。予測アクションは学習前に中止されます。
type EmptyDatasetError struct {
	Label string // フィルタに使った商品ラベル（フィルタなしなら空）
}

func (e *EmptyDatasetError) Error() string {
	if e.Label == "" {
		return "データセットが空です"
	}
	return fmt.Sprintf("商品 %q に該当するデータがありません", e.Label)
}

// InsufficientDataError は学習に必要なサンプル数（2件）に満たない場合を表します。
type InsufficientDataError struct {
	Got int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("学習には最低2件のサンプルが必要です（現在 %d 件）", e.Got)
}
