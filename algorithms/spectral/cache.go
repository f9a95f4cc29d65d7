package spectral

import (
	"fmt"
	"sync"
)

// Mel filter banks and DCT matrices are immutable once built, so they are
// shared process-wide. Concurrent pipelines analyzing at the same
// (sample rate, FFT size) reuse the same matrices instead of rebuilding
// them per invocation.

var (
	filterBankMu    sync.RWMutex
	filterBankCache = make(map[string][][]float64)

	dctMu    sync.RWMutex
	dctCache = make(map[string][][]float64)
)

func cachedFilterBank(ms *MelScale, numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	key := fmt.Sprintf("%d:%d:%d:%.1f:%.1f", numFilters, fftSize, sampleRate, lowFreq, highFreq)

	filterBankMu.RLock()
	bank, ok := filterBankCache[key]
	filterBankMu.RUnlock()
	if ok {
		return bank
	}

	bank = ms.CreateMelFilterBank(numFilters, fftSize, sampleRate, lowFreq, highFreq)

	filterBankMu.Lock()
	if existing, ok := filterBankCache[key]; ok {
		bank = existing
	} else {
		filterBankCache[key] = bank
	}
	filterBankMu.Unlock()

	return bank
}

func cachedDCTMatrix(numCoefficients, numFilters int) [][]float64 {
	key := fmt.Sprintf("%d:%d", numCoefficients, numFilters)

	dctMu.RLock()
	matrix, ok := dctCache[key]
	dctMu.RUnlock()
	if ok {
		return matrix
	}

	matrix = newDCTMatrix(numCoefficients, numFilters)

	dctMu.Lock()
	if existing, ok := dctCache[key]; ok {
		matrix = existing
	} else {
		dctCache[key] = matrix
	}
	dctMu.Unlock()

	return matrix
}
