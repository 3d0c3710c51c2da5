package quality

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const rankTolerance = 1e-9

// forceClosure reports whether the origin lies strictly inside the convex hull of ws: the
// wrenches span all six dimensions and some strictly positive combination of them vanishes.
func forceClosure(ws []wrench) bool {
	if len(ws) < 7 {
		return false
	}
	w := mat.NewDense(6, len(ws), nil)
	for j, v := range ws {
		for i := 0; i < 6; i++ {
			w.Set(i, j, v[i])
		}
	}
	var svd mat.SVD
	if !svd.Factorize(w, mat.SVDNone) || svd.Rank(rankTolerance) < 6 {
		return false
	}

	// W(1 + s) = 0 with s >= 0  <=>  W s = -W 1
	ones := make([]float64, len(ws))
	for i := range ones {
		ones[i] = 1
	}
	var b mat.VecDense
	b.MulVec(w, mat.NewVecDense(len(ws), ones))
	b.ScaleVec(-1, &b)
	c := make([]float64, len(ws))
	_, _, err := lp.Simplex(c, w, b.RawVector().Data, 1e-10, nil)
	return err == nil
}
