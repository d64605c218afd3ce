package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"sync"

	"sales-forecast-api/pkg/models"
)

// DefaultSurface 予測チャートを描画する標準の描画面ID
const DefaultSurface = "forecast-chart"

// chartTemplate 実績/予測の2系列を1本の月軸に描く折れ線チャートページ
var chartTemplate = template.Must(template.New("chart").Parse(`<!doctype html><html><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Sales Forecast</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;background:#0b1020;color:#e8ecff;margin:0;padding:16px}
.card{background:#111837;border:1px solid #203063;border-radius:14px;padding:16px}
canvas{max-width:100%}
</style>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
</head><body>
<div class="card"><canvas id="{{.Surface}}"></canvas></div>
<script>
const data = {{.Payload}};
new Chart(document.getElementById({{.Surface}}), {
  type: "line",
  data: {
    labels: data.labels,
    datasets: [
      {label: "実績販売数", data: data.actual, borderColor: "#7aa2ff", spanGaps: false},
      {label: "予測販売数", data: data.forecast, borderColor: "#ffb07a", borderDash: [6, 4], spanGaps: false}
    ]
  },
  options: {scales: {y: {beginAtZero: true}}}
});
</script>
</body></html>
`))

// ChartInstance 1つの描画面に紐づく描画済みチャート
type ChartInstance struct {
	Generation int    // 同じ描画面で何回目の描画か
	HTML       string // 描画済みページ
}

// ChartService はチャート描画面を排他的に所有します。
// 描画のたびに前のチャートインスタンスを破棄してから新しいチャートを作成するため、
// 連続した予測アクションでもチャートが重なったまま残ることはありません。
type ChartService struct {
	mu       sync.Mutex
	surfaces map[string]*ChartInstance
}

// NewChartService 新しいChartServiceを作成
func NewChartService() *ChartService {
	return &ChartService{
		surfaces: make(map[string]*ChartInstance),
	}
}

// BuildChartData 実績と予測を1本の月軸に整列させます。
// 実績は Month 1..len(actual)、予測は Month len(actual)+1..len(actual)+len(forecast)。
// 先頭の "Month 0" は目盛り合わせのためのラベルで、データ点を持ちません。
func BuildChartData(actual, forecast []float64) models.ChartData {
	total := len(actual) + len(forecast)

	labels := make([]string, total+1)
	actualSeries := make([]*float64, total+1)
	forecastSeries := make([]*float64, total+1)
	for i := 0; i <= total; i++ {
		labels[i] = fmt.Sprintf("Month %d", i)
	}
	for i := range actual {
		v := actual[i]
		actualSeries[i+1] = &v
	}
	for i := range forecast {
		v := forecast[i]
		forecastSeries[len(actual)+1+i] = &v
	}

	return models.ChartData{
		Labels:   labels,
		Actual:   actualSeries,
		Forecast: forecastSeries,
	}
}

// Render は描画面に紐づく前のチャートを破棄してから新しいチャートを描画します。
// テンプレート実行が途中で失敗した場合、描画面は空のままになります（古いチャートは復活しません）。
func (s *ChartService) Render(surface string, data models.ChartData) (*ChartInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 先に既存インスタンスを破棄する
	prev := s.surfaces[surface]
	delete(s.surfaces, surface)

	generation := 1
	if prev != nil {
		generation = prev.Generation + 1
		log.Printf("🧹 [チャート] 描画面 %s の前のチャート (generation=%d) を破棄しました", surface, prev.Generation)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("チャートデータの変換に失敗: %w", err)
	}

	var buf bytes.Buffer
	err = chartTemplate.Execute(&buf, map[string]interface{}{
		"Surface": surface,
		"Payload": template.JS(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("チャートの描画に失敗: %w", err)
	}

	instance := &ChartInstance{Generation: generation, HTML: buf.String()}
	s.surfaces[surface] = instance
	return instance, nil
}

// Current は描画面に現在紐づいているチャートを返します（未描画なら nil）。
func (s *ChartService) Current(surface string) *ChartInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaces[surface]
}

// InstanceCount 現在保持しているチャートインスタンスの総数
func (s *ChartService) InstanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.surfaces)
}
