package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// pageTemplate 単一ページUI: ファイル選択、商品ドロップダウン、予測ボタン、チャート表示枠
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html><html><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Sales Forecast</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;background:#0b1020;color:#e8ecff;margin:0;padding:20px}
.card{background:#111837;border:1px solid #203063;border-radius:14px;padding:16px;margin:12px 0}
h1{margin:0 0 10px 0} .muted{color:#9aa7cf}
button{background:#7aa2ff;color:#04102a;border:none;padding:8px 12px;border-radius:10px;cursor:pointer}
select{padding:6px;border-radius:8px}
iframe{width:100%;height:420px;border:none;border-radius:10px;background:#0b1020}
</style>
</head><body>
<h1>Sales Forecast</h1>

<div class="card">
  <h3>販売実績のアップロード</h3>
  <input type="file" id="file" accept=".csv,.xlsx">
  <button onclick="upload()">アップロード</button>
  <p class="muted">必要な列: id, short_desc, created (MM/DD), total_sold</p>
</div>

<div class="card">
  <h3>予測</h3>
  <select id="product"><option value="">（すべての商品）</option></select>
  <button onclick="predict()">Predict</button>
  <p class="muted" id="status"></p>
</div>

<div class="card">
  <h3>実績と予測</h3>
  <iframe id="chart" src="about:blank"></iframe>
</div>

<script>
async function upload() {
  const input = document.getElementById("file");
  if (!input.files.length) return;
  const form = new FormData();
  form.append("file", input.files[0]);
  const res = await fetch("/api/v1/upload", {method: "POST", body: form});
  const body = await res.json();
  const status = document.getElementById("status");
  if (!body.success) { status.textContent = body.error; return; }
  const select = document.getElementById("product");
  select.innerHTML = '<option value="">（すべての商品）</option>';
  for (const p of body.products) {
    const opt = document.createElement("option");
    opt.value = p; opt.textContent = p;
    select.appendChild(opt);
  }
  status.textContent = body.rows + " 件のレコードを読み込みました";
}

async function predict() {
  const product = document.getElementById("product").value;
  const status = document.getElementById("status");
  status.textContent = "学習中...";
  const res = await fetch("/api/v1/predict", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({product: product})
  });
  const body = await res.json();
  if (!body.success) { status.textContent = body.error; return; }
  status.textContent = "予測が完了しました";
  document.getElementById("chart").src = body.chart_url + "?t=" + Date.now();
}
</script>
</body></html>
`))

// Index は単一ページUIを返します。
func Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ページの描画に失敗しました。"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// HealthCheck はヘルスチェックエンドポイントです。
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Sales Forecast API",
	})
}
