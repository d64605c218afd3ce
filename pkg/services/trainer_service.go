package services

import (
	"log"
	"math"
	"math/rand"

	"sales-forecast-api/pkg/models"

	"gonum.org/v1/gonum/mat"
)

// TrainerService は (月, 商品コード) → 正規化販売数 の回帰ネットワークを学習します。
// ネットワーク構成: 全結合 2 → 64 (ReLU) → 32 (ReLU) → 1、損失はMSE、
// 最適化はAdam。バッチ分割なしの全件パスを固定エポック数だけ繰り返します。
type TrainerService struct {
	epochs       int
	learningRate float64
	seed         int64
}

// NewTrainerService 新しいTrainerServiceを作成
func NewTrainerService(epochs int, learningRate float64, seed int64) *TrainerService {
	return &TrainerService{
		epochs:       epochs,
		learningRate: learningRate,
		seed:         seed,
	}
}

// TrainedModel 学習済みネットワークのハンドル。
// 1回の予測アクションの間だけ有効で、永続化されません。
type TrainedModel struct {
	layers []*denseLayer
}

// denseLayer 全結合層（weightsは in×out、biasは 1×out）
type denseLayer struct {
	weights *mat.Dense
	bias    *mat.Dense
	relu    bool
}

// newDenseLayer Glorot一様分布で重みを初期化した層を作成（バイアスは0）
func newDenseLayer(in, out int, relu bool, rng *rand.Rand) *denseLayer {
	limit := math.Sqrt(6.0 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return &denseLayer{
		weights: mat.NewDense(in, out, data),
		bias:    mat.NewDense(1, out, nil),
		relu:    relu,
	}
}

// forward は (事前活性z, 活性化後a) を返します。ReLUなしの層では z と a は同一です。
func (l *denseLayer) forward(x mat.Matrix) (*mat.Dense, *mat.Dense) {
	rows, _ := x.Dims()
	_, out := l.weights.Dims()

	z := mat.NewDense(rows, out, nil)
	z.Mul(x, l.weights)
	for i := 0; i < rows; i++ {
		for j := 0; j < out; j++ {
			z.Set(i, j, z.At(i, j)+l.bias.At(0, j))
		}
	}

	if !l.relu {
		return z, z
	}

	a := mat.NewDense(rows, out, nil)
	a.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, z)
	return z, a
}

// backward は (重み勾配, バイアス勾配, 入力側勾配) を返します。
func (l *denseLayer) backward(input mat.Matrix, dZ *mat.Dense) (*mat.Dense, *mat.Dense, *mat.Dense) {
	in, out := l.weights.Dims()

	gW := mat.NewDense(in, out, nil)
	gW.Mul(input.T(), dZ)

	gb := colSums(dZ)

	rows, _ := dZ.Dims()
	dInput := mat.NewDense(rows, in, nil)
	dInput.Mul(dZ, l.weights.T())

	return gW, gb, dInput
}

// reluBackward ReLUの勾配を適用（z > 0 の位置のみ通す）
func reluBackward(dA, z *mat.Dense) *mat.Dense {
	rows, cols := dA.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if z.At(i, j) > 0 {
				out.Set(i, j, dA.At(i, j))
			}
		}
	}
	return out
}

// colSums 列ごとの合計（1×cols）
func colSums(d *mat.Dense) *mat.Dense {
	rows, cols := d.Dims()
	out := mat.NewDense(1, cols, nil)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += d.At(i, j)
		}
		out.Set(0, j, sum)
	}
	return out
}

// adamOptimizer Adam（適応モーメント推定）による勾配降下
type adamOptimizer struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64
	t       int
	params  []*mat.Dense
	m       []*mat.Dense
	v       []*mat.Dense
}

func newAdamOptimizer(lr float64, params []*mat.Dense) *adamOptimizer {
	o := &adamOptimizer{
		lr:      lr,
		beta1:   0.9,
		beta2:   0.999,
		epsilon: 1e-8,
		params:  params,
	}
	for _, p := range params {
		r, c := p.Dims()
		o.m = append(o.m, mat.NewDense(r, c, nil))
		o.v = append(o.v, mat.NewDense(r, c, nil))
	}
	return o
}

// step はバイアス補正付きのAdam更新をパラメータへインプレースで適用します。
func (o *adamOptimizer) step(grads []*mat.Dense) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, float64(o.t))
	c2 := 1 - math.Pow(o.beta2, float64(o.t))

	for k, p := range o.params {
		pd := p.RawMatrix().Data
		gd := grads[k].RawMatrix().Data
		md := o.m[k].RawMatrix().Data
		vd := o.v[k].RawMatrix().Data
		for i := range pd {
			g := gd[i]
			md[i] = o.beta1*md[i] + (1-o.beta1)*g
			vd[i] = o.beta2*vd[i] + (1-o.beta2)*g*g
			mHat := md[i] / c1
			vHat := vd[i] / c2
			pd[i] -= o.lr * mHat / (math.Sqrt(vHat) + o.epsilon)
		}
	}
}

// buildTrainingMatrices は遅延1の自己回帰ペアを構築します。
// 入力: samples[0..N-2] の (month, productCode)、教師: samples[1..N-1] の正規化販売数。
// 商品コードを含む「直前行の特徴量」をそのまま入力に使う点は互換性維持のため変更しません。
func buildTrainingMatrices(samples []models.EncodedSample) (*mat.Dense, *mat.Dense) {
	n := len(samples) - 1
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(samples[i].Month))
		x.Set(i, 1, float64(samples[i].ProductCode))
		y.Set(i, 0, samples[i+1].NormalizedQuantity)
	}
	return x, y
}

// Train はEncodedSample列からモデルを学習します。サンプルが2件未満の場合はエラーです。
// 予測アクションごとに新しいモデルを作成し、学習後のモデルは呼び出し側が使い捨てます。
func (s *TrainerService) Train(samples []models.EncodedSample) (*TrainedModel, error) {
	if len(samples) < 2 {
		return nil, &models.InsufficientDataError{Got: len(samples)}
	}

	x, y := buildTrainingMatrices(samples)

	rng := rand.New(rand.NewSource(s.seed))
	model := &TrainedModel{
		layers: []*denseLayer{
			newDenseLayer(2, 64, true, rng),
			newDenseLayer(64, 32, true, rng),
			newDenseLayer(32, 1, false, rng),
		},
	}

	opt := newAdamOptimizer(s.learningRate, model.parameters())

	for epoch := 1; epoch <= s.epochs; epoch++ {
		loss := model.trainStep(x, y, opt)
		log.Printf("📉 [学習] epoch %d/%d loss=%.6f", epoch, s.epochs, loss)
	}

	return model, nil
}

// parameters 最適化対象のパラメータ一覧（層の順に weights, bias）
func (m *TrainedModel) parameters() []*mat.Dense {
	var params []*mat.Dense
	for _, l := range m.layers {
		params = append(params, l.weights, l.bias)
	}
	return params
}

// trainStep 全件1パスの順伝播・逆伝播・更新を行い、MSE損失を返します。
func (m *TrainedModel) trainStep(x, y *mat.Dense, opt *adamOptimizer) float64 {
	l1, l2, l3 := m.layers[0], m.layers[1], m.layers[2]

	z1, a1 := l1.forward(x)
	z2, a2 := l2.forward(a1)
	_, pred := l3.forward(a2)

	// MSE損失と出力層の勾配
	rows, _ := pred.Dims()
	dZ3 := mat.NewDense(rows, 1, nil)
	loss := 0.0
	for i := 0; i < rows; i++ {
		diff := pred.At(i, 0) - y.At(i, 0)
		loss += diff * diff
		dZ3.Set(i, 0, 2*diff/float64(rows))
	}
	loss /= float64(rows)

	gW3, gb3, dA2 := l3.backward(a2, dZ3)
	dZ2 := reluBackward(dA2, z2)
	gW2, gb2, dA1 := l2.backward(a1, dZ2)
	dZ1 := reluBackward(dA1, z1)
	gW1, gb1, _ := l1.backward(x, dZ1)

	opt.step([]*mat.Dense{gW1, gb1, gW2, gb2, gW3, gb3})
	return loss
}

// Predict は1サンプルの順伝播を行い、正規化された販売数の推定値を返します。
func (m *TrainedModel) Predict(month, productCode float64) float64 {
	x := mat.NewDense(1, 2, []float64{month, productCode})
	_, a1 := m.layers[0].forward(x)
	_, a2 := m.layers[1].forward(a1)
	_, out := m.layers[2].forward(a2)
	return out.At(0, 0)
}
