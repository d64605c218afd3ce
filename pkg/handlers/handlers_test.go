package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-forecast-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testCSV = `id,short_desc,created,total_sold
1,A,01/01,10
2,A,01/02,20
3,A,01/03,30
4,A,01/04,25
5,B,01/05,40
`

// setupTestEnv はテスト用のルーターと（検証用に）チャートサービスを組み立てます。
func setupTestEnv() (*gin.Engine, *services.ChartService) {
	gin.SetMode(gin.TestMode)

	datasetService := services.NewDatasetService()
	encoderService := services.NewEncoderService()
	trainerService := services.NewTrainerService(200, 0.01, 42)
	forecastService := services.NewForecastService(6)
	chartService := services.NewChartService()

	handler := NewForecastHandler(datasetService, encoderService, trainerService, forecastService, chartService)

	router := gin.New()
	router.GET("/", Index)
	router.GET("/health", HealthCheck)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/upload", handler.UploadFile)
		v1.GET("/products", handler.ListProducts)
		v1.POST("/predict", handler.Predict)
		v1.GET("/chart", handler.GetChart)
	}

	return router, chartService
}

// uploadCSV はマルチパートでCSVをアップロードします。
func uploadCSV(t *testing.T, router *gin.Engine, csvBody string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "sales.csv")
	assert.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func predict(router *gin.Engine, product string) *httptest.ResponseRecorder {
	body := bytes.NewBufferString(`{"product":"` + product + `"}`)
	req := httptest.NewRequest("POST", "/api/v1/predict", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMonitoringRecentRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	monitoringService := services.NewMonitoringService()
	handler := NewMonitoringHandler(monitoringService)

	router := gin.New()
	router.Use(monitoringService.LoggingMiddleware())
	router.GET("/health", HealthCheck)
	router.GET("/api/v1/monitoring/requests", handler.RecentRequests)

	// 記録対象のリクエストを1件流す
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest("GET", "/api/v1/monitoring/requests", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/health")
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestEnv()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestIndexPage(t *testing.T) {
	router, _ := setupTestEnv()

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Predict")
	assert.Contains(t, w.Body.String(), "/api/v1/upload")
}

func TestUploadPopulatesProducts(t *testing.T) {
	router, _ := setupTestEnv()

	w := uploadCSV(t, router, testCSV)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":5`)

	// アップロード後に商品一覧が取得できる
	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"A"`)
	assert.Contains(t, w.Body.String(), `"B"`)
}

func TestUploadParseErrorKeepsPriorDataset(t *testing.T) {
	router, _ := setupTestEnv()

	w := uploadCSV(t, router, testCSV)
	assert.Equal(t, http.StatusOK, w.Code)

	// 壊れたファイルは400になり、直前のデータセットは保持される
	w = uploadCSV(t, router, "id,short_desc,created,total_sold\n1,\"A,01/01,10")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"A"`)
}

func TestPredictFullCycle(t *testing.T) {
	router, _ := setupTestEnv()
	uploadCSV(t, router, testCSV)

	w := predict(router, "A")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success  bool      `json:"success"`
		Samples  int       `json:"samples"`
		Actual   []float64 `json:"actual"`
		Forecast struct {
			Months     []int     `json:"months"`
			Quantities []float64 `json:"quantities"`
		} `json:"forecast"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 4, body.Samples)
	assert.Equal(t, []float64{10, 20, 30, 25}, body.Actual)

	// 予測はちょうど6件、最終観測月(4)の翌月から、すべて0以上
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10}, body.Forecast.Months)
	assert.Len(t, body.Forecast.Quantities, 6)
	for _, q := range body.Forecast.Quantities {
		assert.GreaterOrEqual(t, q, 0.0)
	}

	// チャートが描画されている
	req := httptest.NewRequest("GET", "/api/v1/chart", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "Month 0")
}

func TestPredictUnknownProduct(t *testing.T) {
	router, _ := setupTestEnv()
	uploadCSV(t, router, testCSV)

	// 存在しない商品でのフィルタは学習前にEmptyDatasetErrorで中止される
	w := predict(router, "存在しない商品")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "該当するデータがありません")
}

func TestPredictWithoutDataset(t *testing.T) {
	router, _ := setupTestEnv()

	// データ未読み込みの状態でも学習前に中止される
	w := predict(router, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPredictInsufficientData(t *testing.T) {
	router, _ := setupTestEnv()
	uploadCSV(t, router, testCSV)

	// 商品Bは1件しかないため学習に必要なサンプル数に満たない
	w := predict(router, "B")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "最低2件")
}

func TestSequentialPredictsLeaveSingleChart(t *testing.T) {
	router, chartService := setupTestEnv()
	uploadCSV(t, router, testCSV)

	// 連続した予測アクションでもチャートインスタンスは1つだけ残る
	w := predict(router, "A")
	assert.Equal(t, http.StatusOK, w.Code)
	w = predict(router, "A")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, chartService.InstanceCount())
	assert.Equal(t, 2, chartService.Current(services.DefaultSurface).Generation)
}
