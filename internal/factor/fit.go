package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "rentstat/internal/errors"
)

// psiFloor keeps specific variances away from zero to avoid Heywood
// cases during EM.
const psiFloor = 0.005

// mlFit estimates a k-factor maximum-likelihood model from a
// correlation matrix using the EM algorithm of Rubin and Thayer.
// It returns the unrotated loadings, the specific variances, the final
// log-likelihood kernel, the iteration count, and whether the fit
// converged within maxIter.
func mlFit(corr *mat.SymDense, k, maxIter int, tol float64) (*mat.Dense, []float64, float64, int, bool, error) {
	p := corr.SymmetricDim()
	if k < 1 || k >= p {
		return nil, nil, 0, 0, false, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			fmt.Sprintf("factor count %d out of range for %d variables", k, p))
	}

	s := mat.DenseCopyOf(corr)

	lambda, psi, err := initialEstimates(corr, k)
	if err != nil {
		return nil, nil, 0, 0, false, err
	}

	prevCrit := math.Inf(1)
	converged := false
	iter := 0

	var (
		sigma, sigmaInv, beta mat.Dense
		ezz, ezzInv           mat.Dense
		sbt, bs               mat.Dense
	)

	for iter = 1; iter <= maxIter; iter++ {
		// Sigma = Lambda Lambda' + Psi
		sigma.Mul(lambda, lambda.T())
		for i := 0; i < p; i++ {
			sigma.Set(i, i, sigma.At(i, i)+psi[i])
		}

		if err := sigmaInv.Inverse(&sigma); err != nil {
			return nil, nil, 0, iter, false, apperrors.Wrap(apperrors.CodeDegenerateMatrix, "factor",
				"model covariance became singular", err)
		}

		// beta = Lambda' Sigma^-1  (k×p)
		beta.Mul(lambda.T(), &sigmaInv)

		// E[zz'] = I - beta Lambda + beta S beta'  (k×k)
		var bl mat.Dense
		bl.Mul(&beta, lambda)
		var bsb mat.Dense
		bs.Mul(&beta, s)
		bsb.Mul(&bs, beta.T())

		ezz.CloneFrom(&bsb)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				v := ezz.At(i, j) - bl.At(i, j)
				if i == j {
					v++
				}
				ezz.Set(i, j, v)
			}
		}

		if err := ezzInv.Inverse(&ezz); err != nil {
			return nil, nil, 0, iter, false, apperrors.Wrap(apperrors.CodeDegenerateMatrix, "factor",
				"factor second-moment matrix became singular", err)
		}

		// Lambda_new = S beta' (E[zz'])^-1
		sbt.Mul(s, beta.T())
		lambda.Mul(&sbt, &ezzInv)

		// Psi_new = diag(S - Lambda_new beta S)
		var lbs mat.Dense
		lbs.Mul(lambda, &bs)
		for i := 0; i < p; i++ {
			v := s.At(i, i) - lbs.At(i, i)
			if v < psiFloor {
				v = psiFloor
			}
			psi[i] = v
		}

		// Convergence on the likelihood kernel ln det Sigma + tr(Sigma^-1 S).
		crit, err := likelihoodKernel(&sigma, s)
		if err != nil {
			return nil, nil, 0, iter, false, err
		}
		if math.Abs(prevCrit-crit) < tol {
			converged = true
			prevCrit = crit
			break
		}
		prevCrit = crit
	}

	if iter > maxIter {
		iter = maxIter
	}

	// -n/2 scaling is presentation only; report the kernel with the
	// conventional sign so larger is better.
	logLik := -0.5 * prevCrit

	return lambda, psi, logLik, iter, converged, nil
}

// initialEstimates seeds EM from the principal component solution:
// loadings are leading eigenvectors scaled by the root eigenvalue,
// specific variances are the residual diagonal.
func initialEstimates(corr *mat.SymDense, k int) (*mat.Dense, []float64, error) {
	p := corr.SymmetricDim()

	var es mat.EigenSym
	if ok := es.Factorize(corr, true); !ok {
		return nil, nil, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			"eigen-decomposition failed during initialization")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Eigenvalues ascend; take the trailing k columns.
	lambda := mat.NewDense(p, k, nil)
	for j := 0; j < k; j++ {
		src := p - 1 - j
		scale := math.Sqrt(math.Max(vals[src], 0))
		for i := 0; i < p; i++ {
			lambda.Set(i, j, vecs.At(i, src)*scale)
		}
	}

	psi := make([]float64, p)
	for i := 0; i < p; i++ {
		h2 := 0.0
		for j := 0; j < k; j++ {
			h2 += lambda.At(i, j) * lambda.At(i, j)
		}
		v := corr.At(i, i) - h2
		if v < psiFloor {
			v = psiFloor
		}
		psi[i] = v
	}

	return lambda, psi, nil
}

// likelihoodKernel computes ln det(Sigma) + tr(Sigma^-1 S), the part
// of the negative log-likelihood that varies with the parameters.
func likelihoodKernel(sigma *mat.Dense, s *mat.Dense) (float64, error) {
	logDet, sign := mat.LogDet(sigma)
	if sign <= 0 {
		return 0, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			"model covariance lost positive definiteness")
	}

	var inv mat.Dense
	if err := inv.Inverse(sigma); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDegenerateMatrix, "factor",
			"invert model covariance", err)
	}
	var prod mat.Dense
	prod.Mul(&inv, s)

	return logDet + mat.Trace(&prod), nil
}
