package fbank

import "math"

// hammingWindow generates a symmetric Hamming window of the given length.
func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// hannWindow generates a periodic Hann window of the given length.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// hzToMel converts frequency in Hz to the HTK mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts HTK mel scale frequency back to Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// Slaney scale: linear below 1 kHz, logarithmic above.
const (
	slaneyStep     = 200.0 / 3
	slaneyMinLogHz = 1000.0
	slaneyMinLog   = slaneyMinLogHz / slaneyStep
)

var slaneyLogStep = math.Log(6.4) / 27.0

func hzToSlaney(hz float64) float64 {
	if hz < slaneyMinLogHz {
		return hz / slaneyStep
	}
	return slaneyMinLog + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
}

func slaneyToHz(mel float64) float64 {
	if mel < slaneyMinLog {
		return mel * slaneyStep
	}
	return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLog))
}

// melFilterBank creates the HTK mel filterbank matrix with filter edges
// rounded to FFT bins. Returns [numMels][halfFFT], halfFFT = fftSize/2 + 1.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	// numMels + 2 equally spaced mel points
	melPoints := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*step
	}

	bins := make([]int, numMels+2)
	for i, m := range melPoints {
		hz := melToHz(m)
		bin := int(math.Round(hz * float64(fftSize) / float64(sampleRate)))
		if bin >= halfFFT {
			bin = halfFFT - 1
		}
		bins[i] = bin
	}

	// Ensure each filter has at least 1 bin width
	for i := 1; i < len(bins); i++ {
		if bins[i] <= bins[i-1] {
			bins[i] = bins[i-1] + 1
		}
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filter := make([]float64, halfFFT)
		left := bins[m]
		center := bins[m+1]
		right := bins[m+2]

		for k := left; k < center && k < halfFFT; k++ {
			if center != left {
				filter[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right && k < halfFFT; k++ {
			if right != center {
				filter[k] = float64(right-k) / float64(right-center)
			}
		}
		bank[m] = filter
	}
	return bank
}

// slaneyFilterBank creates continuous triangular filters on the Slaney
// scale, each scaled to unit area (2 / bandwidth in Hz).
func slaneyFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	lowMel := hzToSlaney(lowFreq)
	highMel := hzToSlaney(highFreq)

	edges := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range edges {
		edges[i] = slaneyToHz(lowMel + float64(i)*step)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		norm := 2.0 / (right - left)
		filter := make([]float64, halfFFT)
		for k := range filter {
			f := float64(k) * float64(sampleRate) / float64(fftSize)
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			if w := math.Min(lower, upper); w > 0 {
				filter[k] = w * norm
			}
		}
		bank[m] = filter
	}
	return bank
}

// dctMatrix returns the first numCeps rows of the orthonormal DCT-II basis
// of size n.
func dctMatrix(numCeps, n int) [][]float64 {
	basis := make([][]float64, numCeps)
	for k := range basis {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[k] = row
	}
	return basis
}
