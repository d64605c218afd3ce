package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// テスト用の環境変数を設定
	testCases := map[string]string{
		"PORT":             "9090",
		"ENVIRONMENT":      "test",
		"TRAINING_EPOCHS":  "50",
		"LEARNING_RATE":    "0.005",
		"FORECAST_HORIZON": "3",
		"TRAINING_SEED":    "7",
	}

	// 環境変数を設定
	for key, value := range testCases {
		os.Setenv(key, value)
	}

	// テスト後にクリーンアップ
	defer func() {
		for key := range testCases {
			os.Unsetenv(key)
		}
	}()

	// 設定を読み込み
	cfg := LoadConfig()

	// 検証
	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be '9090', got '%s'", cfg.Port)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected Environment to be 'test', got '%s'", cfg.Environment)
	}

	if cfg.TrainingEpochs != 50 {
		t.Errorf("Expected TrainingEpochs to be 50, got %d", cfg.TrainingEpochs)
	}

	if cfg.LearningRate != 0.005 {
		t.Errorf("Expected LearningRate to be 0.005, got %f", cfg.LearningRate)
	}

	if cfg.ForecastHorizon != 3 {
		t.Errorf("Expected ForecastHorizon to be 3, got %d", cfg.ForecastHorizon)
	}

	if cfg.TrainingSeed != 7 {
		t.Errorf("Expected TrainingSeed to be 7, got %d", cfg.TrainingSeed)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	// 関連する環境変数をすべて外した状態でデフォルト値を確認
	keys := []string{"PORT", "ENVIRONMENT", "TRAINING_EPOCHS", "LEARNING_RATE", "FORECAST_HORIZON", "TRAINING_SEED"}
	for _, key := range keys {
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port to be '8080', got '%s'", cfg.Port)
	}

	if cfg.TrainingEpochs != 200 {
		t.Errorf("Expected default TrainingEpochs to be 200, got %d", cfg.TrainingEpochs)
	}

	if cfg.LearningRate != 0.01 {
		t.Errorf("Expected default LearningRate to be 0.01, got %f", cfg.LearningRate)
	}

	if cfg.ForecastHorizon != 6 {
		t.Errorf("Expected default ForecastHorizon to be 6, got %d", cfg.ForecastHorizon)
	}

	if cfg.TrainingSeed != 42 {
		t.Errorf("Expected default TrainingSeed to be 42, got %d", cfg.TrainingSeed)
	}

	// 不正な数値はデフォルト値にフォールバックする
	os.Setenv("TRAINING_EPOCHS", "abc")
	defer os.Unsetenv("TRAINING_EPOCHS")

	cfg = LoadConfig()
	if cfg.TrainingEpochs != 200 {
		t.Errorf("Expected invalid TRAINING_EPOCHS to fall back to 200, got %d", cfg.TrainingEpochs)
	}
}
