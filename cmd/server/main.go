package main

import (
	"log"

	config "sales-forecast-api/configs"
	"sales-forecast-api/pkg/handlers"
	"sales-forecast-api/pkg/metrics"
	"sales-forecast-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	// Ginルーターの初期化
	r := gin.Default()

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	datasetService := services.NewDatasetService()
	encoderService := services.NewEncoderService()
	trainerService := services.NewTrainerService(cfg.TrainingEpochs, cfg.LearningRate, cfg.TrainingSeed)
	forecastService := services.NewForecastService(cfg.ForecastHorizon)
	chartService := services.NewChartService()

	// メトリクスの登録
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Printf("Warning: failed to register metrics: %v", err)
	}

	// ハンドラーの初期化
	forecastHandler := handlers.NewForecastHandler(
		datasetService,
		encoderService,
		trainerService,
		forecastService,
		chartService,
	)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	// 単一ページUIとヘルスチェック
	r.GET("/", handlers.Index)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	{
		v1.POST("/upload", forecastHandler.UploadFile)
		v1.GET("/products", forecastHandler.ListProducts)
		v1.POST("/predict", forecastHandler.Predict)
		v1.GET("/chart", forecastHandler.GetChart)
		v1.GET("/monitoring/requests", monitoringHandler.RecentRequests)
	}

	// サーバーの起動
	log.Printf("🚀 Sales Forecast API を起動します (port=%s, env=%s)", cfg.Port, cfg.Environment)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
