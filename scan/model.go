package scan

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"

	"github.com/yassato/Paper-Rqtl2/kinship"
)

// Model holds the fitted null model for one scan unit (one chromosome under
// LOCO, or the whole genome otherwise). When a kinship matrix is supplied the
// model is a linear mixed model: the phenotype and designs are rotated into
// the kinship eigenbasis, the heritability is fit once on the null model, and
// every marker is then tested by weighted least squares in that basis. This
// is the standard eigen-rotation trick (Kang et al. style) that turns each
// marker test into a cheap regression.
type Model struct {
	n int

	// eigenvectors of the kinship matrix; nil for a plain Haley-Knott fit
	u *mat.Dense
	// 1/sqrt(hsq*eigenvalue + (1-hsq)) per rotated row
	scale []float64

	// Hsq is the fitted null-model heritability, 0 without kinship.
	Hsq float64

	y    *mat.VecDense // rotated, weighted response
	rss0 float64
}

// NewModel fits the null model y ~ intercept + covar, mixed over k when k is
// non-nil. covar may be nil for a covariate-free scan.
func NewModel(y []float64, covar *mat.Dense, k *kinship.Matrix) (*Model, error) {
	n := len(y)
	if n == 0 {
		return nil, pfx.Err(fmt.Errorf("empty phenotype vector"))
	}
	if covar != nil {
		if r, _ := covar.Dims(); r != n {
			return nil, pfx.Err(fmt.Errorf("covariate matrix has %d rows, phenotype has %d", r, n))
		}
	}
	if k != nil && k.Dim() != n {
		return nil, pfx.Err(fmt.Errorf("kinship matrix order %d does not match %d samples", k.Dim(), n))
	}

	m := &Model{n: n}

	x0 := nullDesign(n, covar)
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	if k == nil {
		m.y = yv
		rss, err := residSS(x0, m.y)
		if err != nil {
			return nil, err
		}
		m.rss0 = rss

		return m, nil
	}

	var es mat.EigenSym
	if ok := es.Factorize(k.K, true); !ok {
		return nil, pfx.Err(fmt.Errorf("kinship eigendecomposition failed"))
	}

	vals := es.Values(nil)
	for i, v := range vals {
		// tiny negative eigenvalues are numerical noise
		if v < 0 {
			vals[i] = 0
		}
	}

	m.u = &mat.Dense{}
	es.VectorsTo(m.u)

	var yr mat.VecDense
	yr.MulVec(m.u.T(), yv)
	var xr mat.Dense
	xr.Mul(m.u.T(), x0)

	hsq, err := fitHsq(&yr, &xr, vals)
	if err != nil {
		return nil, err
	}
	m.Hsq = hsq

	m.scale = make([]float64, n)
	for i, v := range vals {
		m.scale[i] = 1 / math.Sqrt(hsq*v+(1-hsq))
	}

	m.y = reweightVec(&yr, m.scale)
	rss, err := residSS(reweight(&xr, m.scale), m.y)
	if err != nil {
		return nil, err
	}
	m.rss0 = rss

	return m, nil
}

// LOD tests an alternative design (raw, unrotated) against the fitted null.
func (m *Model) LOD(alt *mat.Dense) (float64, error) {
	if r, _ := alt.Dims(); r != m.n {
		return 0, pfx.Err(fmt.Errorf("alternative design has %d rows, model has %d samples", r, m.n))
	}

	x := alt
	if m.u != nil {
		var xr mat.Dense
		xr.Mul(m.u.T(), alt)
		x = reweight(&xr, m.scale)
	}

	rss1, err := residSS(x, m.y)
	if err != nil {
		return 0, err
	}

	lod := float64(m.n) / 2 * math.Log10(m.rss0/rss1)
	if lod < 0 || math.IsNaN(lod) {
		lod = 0
	}

	return lod, nil
}

// nullDesign is [1 | covar].
func nullDesign(n int, covar *mat.Dense) *mat.Dense {
	cols := 1
	if covar != nil {
		_, cc := covar.Dims()
		cols += cc
	}

	x := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	if covar != nil {
		_, cc := covar.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < cc; j++ {
				x.Set(i, j+1, covar.At(i, j))
			}
		}
	}

	return x
}

// residSS solves the least squares problem and returns the residual sum of
// squares. Near-singular designs (founder probabilities can be collinear at
// uninformative markers) degrade the condition number rather than the run.
func residSS(x *mat.Dense, y *mat.VecDense) (float64, error) {
	var qr mat.QR
	qr.Factorize(x)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		if _, singular := err.(mat.Condition); !singular {
			return 0, pfx.Err(err)
		}
	}

	var fitted mat.Dense
	fitted.Mul(x, &beta)

	rss := 0.0
	for i := 0; i < y.Len(); i++ {
		r := y.AtVec(i) - fitted.At(i, 0)
		rss += r * r
	}

	return rss, nil
}

// fitHsq maximizes the profiled log-likelihood of the null model over the
// heritability by golden-section search on [0, 0.999]. y and x are already
// rotated into the kinship eigenbasis; vals are the eigenvalues.
func fitHsq(y *mat.VecDense, x *mat.Dense, vals []float64) (float64, error) {
	n := float64(y.Len())

	ll := func(h float64) (float64, error) {
		logDet := 0.0
		scale := make([]float64, y.Len())
		for i, v := range vals {
			w := h*v + (1 - h)
			logDet += math.Log(w)
			scale[i] = 1 / math.Sqrt(w)
		}

		rss, err := residSS(reweight(x, scale), reweightVec(y, scale))
		if err != nil {
			return 0, err
		}

		return -0.5 * (n*math.Log(rss/n) + logDet), nil
	}

	const phi = 0.6180339887498949

	lo, hi := 0.0, 0.999
	a := hi - phi*(hi-lo)
	b := lo + phi*(hi-lo)
	fa, err := ll(a)
	if err != nil {
		return 0, err
	}
	fb, err := ll(b)
	if err != nil {
		return 0, err
	}

	for i := 0; i < 50; i++ {
		if fa > fb {
			hi, b, fb = b, a, fa
			a = hi - phi*(hi-lo)
			if fa, err = ll(a); err != nil {
				return 0, err
			}
		} else {
			lo, a, fa = a, b, fb
			b = lo + phi*(hi-lo)
			if fb, err = ll(b); err != nil {
				return 0, err
			}
		}
	}

	return (lo + hi) / 2, nil
}

func reweight(x *mat.Dense, scale []float64) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(i, j)*scale[i])
		}
	}

	return out
}

func reweightVec(y *mat.VecDense, scale []float64) *mat.VecDense {
	out := mat.NewVecDense(y.Len(), nil)
	for i := 0; i < y.Len(); i++ {
		out.SetVec(i, y.AtVec(i)*scale[i])
	}

	return out
}
