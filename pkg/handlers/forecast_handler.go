package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sales-forecast-api/pkg/metrics"
	"sales-forecast-api/pkg/models"
	"sales-forecast-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ForecastHandler は販売予測APIのハンドラーです。
type ForecastHandler struct {
	datasetService  *services.DatasetService
	encoderService  *services.EncoderService
	trainerService  *services.TrainerService
	forecastService *services.ForecastService
	chartService    *services.ChartService

	// ginは並行にリクエストを処理するため、
	// 「フィルタ→前処理→学習→予測→描画」の1サイクルを直列化する
	predictMu sync.Mutex
}

// NewForecastHandler 新しいForecastHandlerを作成
func NewForecastHandler(
	datasetService *services.DatasetService,
	encoderService *services.EncoderService,
	trainerService *services.TrainerService,
	forecastService *services.ForecastService,
	chartService *services.ChartService,
) *ForecastHandler {
	return &ForecastHandler{
		datasetService:  datasetService,
		encoderService:  encoderService,
		trainerService:  trainerService,
		forecastService: forecastService,
		chartService:    chartService,
	}
}

// UploadFile は販売実績ファイル（.csv / .xlsx）を取り込みます。
// 解析に失敗した場合、直前に読み込み済みのデータセットは保持されます。
func (h *ForecastHandler) UploadFile(c *gin.Context) {
	c.Request.ParseMultipartForm(10 << 20) // 10MB limit

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		metrics.ObserveUpload(metrics.OutcomeError)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ファイルの取得に失敗しました。",
		})
		return
	}
	defer file.Close()

	count, err := h.datasetService.Load(fileHeader.Filename, file)
	if err != nil {
		metrics.ObserveUpload(metrics.OutcomeError)
		var parseErr *models.CsvParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "ファイルの解析に失敗しました。直前のデータは保持されています。",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "ファイルの読み込みに失敗しました。",
		})
		return
	}

	metrics.ObserveUpload(metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"rows":     count,
		"products": h.datasetService.ProductIndex(),
	})
}

// ListProducts は選択可能な商品ラベルの一覧を返します。
func (h *ForecastHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": h.datasetService.ProductIndex(),
	})
}

// Predict は1回の予測アクションを実行します:
// フィルタ → 前処理 → 学習 → 6ヶ月予測 → チャート描画。
// データセット単位のエラーは学習前に中止し、UIの状態は変更されません。
func (h *ForecastHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		metrics.ObservePrediction(metrics.OutcomeError)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "リクエストの形式が不正です。",
		})
		return
	}

	// 1回の予測&描画サイクルをまるごと直列化する
	h.predictMu.Lock()
	defer h.predictMu.Unlock()

	records := h.datasetService.Filter(req.Product)

	encoded, err := h.encoderService.Encode(records)
	if err != nil {
		h.abortPredict(c, req.Product, err)
		return
	}

	trainStart := time.Now()
	model, err := h.trainerService.Train(encoded.Samples)
	if err != nil {
		h.abortPredict(c, req.Product, err)
		return
	}
	metrics.ObserveTraining(time.Since(trainStart))

	last := encoded.Samples[len(encoded.Samples)-1]
	forecast := h.forecastService.Forecast(model, last, encoded.Params)

	actual := actualQuantities(records)
	chartData := services.BuildChartData(actual, forecast.Quantities)
	if _, err := h.chartService.Render(services.DefaultSurface, chartData); err != nil {
		log.Printf("❌ [予測] チャート描画に失敗: %v", err)
		metrics.ObservePrediction(metrics.OutcomeError)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "チャートの描画に失敗しました。",
		})
		return
	}

	metrics.ObservePrediction(metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"product":    req.Product,
		"samples":    len(encoded.Samples),
		"actual":     actual,
		"forecast":   forecast,
		"statistics": services.Summarize(actual),
		"chart_url":  "/api/v1/chart",
	})
}

// abortPredict はデータセット単位のエラーを適切なHTTPステータスに変換します。
func (h *ForecastHandler) abortPredict(c *gin.Context, product string, err error) {
	metrics.ObservePrediction(metrics.OutcomeError)

	var emptyErr *models.EmptyDatasetError
	if errors.As(err, &emptyErr) {
		if emptyErr.Label == "" {
			emptyErr.Label = product
		}
		log.Printf("⚠️ [予測] %v", emptyErr)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   emptyErr.Error(),
		})
		return
	}

	var insufficientErr *models.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		log.Printf("⚠️ [予測] %v", insufficientErr)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   insufficientErr.Error(),
		})
		return
	}

	log.Printf("❌ [予測] %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "予測の実行に失敗しました。",
	})
}

// GetChart は現在描画されているチャートページを返します。
func (h *ForecastHandler) GetChart(c *gin.Context) {
	instance := h.chartService.Current(services.DefaultSurface)
	if instance == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "チャートはまだ描画されていません。",
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(instance.HTML))
}

// actualQuantities はフィルタ済みレコードの販売数を順序を保って数値化します。
// 解釈できない値はスキップします。
func actualQuantities(records []models.SalesRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		q, err := strconv.ParseFloat(strings.TrimSpace(rec.TotalSold), 64)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}
