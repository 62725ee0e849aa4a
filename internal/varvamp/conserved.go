package varvamp

// kmer is a fixed-length substring of the majority consensus inside a
// conserved region, a potential primer before any filtering.
type kmer struct {
	// concrete sequence from the majority consensus
	seq string

	// degenerate sequence from the ambiguous consensus, same interval
	ambSeq string

	// half-open interval over consensus coordinates
	start int
	end   int
}

// findConservedRegions scans the ambiguous consensus with a window of the
// minimum primer size and keeps windows holding at most allowedAmbiguous
// ambiguity codes. Only runs of consecutive clean windows merge into one
// region, so every primer-length window inside a region is itself clean;
// a region closes at the first dirty window and the next clean run may
// open a region overlapping the previous one. Returned sorted by start.
// An empty result means nothing is conserved enough to host a primer; the
// caller decides that this is fatal.
func findConservedRegions(ambiguous string, allowedAmbiguous, minPrimerSize int) []Region {
	if len(ambiguous) < minPrimerSize {
		return nil
	}

	// count ambiguity codes in the first window, then slide
	var regions []Region
	ambCount := 0
	for i := 0; i < minPrimerSize; i++ {
		if isAmbiguous(ambiguous[i]) {
			ambCount++
		}
	}

	prevClean := false
	for start := 0; ; start++ {
		clean := ambCount <= allowedAmbiguous
		if clean {
			end := start + minPrimerSize
			if prevClean {
				regions[len(regions)-1].End = end
			} else {
				regions = append(regions, Region{Start: start, End: end})
			}
		}
		prevClean = clean

		if start+minPrimerSize >= len(ambiguous) {
			break
		}
		if isAmbiguous(ambiguous[start]) {
			ambCount--
		}
		if isAmbiguous(ambiguous[start+minPrimerSize]) {
			ambCount++
		}
	}

	return regions
}

// percentConserved reports how much of the consensus the regions cover.
// Regions may overlap, so shared bases count once.
func percentConserved(regions []Region, consensusLen int) float64 {
	if consensusLen == 0 {
		return 0
	}
	covered, end := 0, -1
	for _, r := range regions {
		if r.Start > end {
			covered += r.Len()
			end = r.End
		} else if r.End > end {
			covered += r.End - end
			end = r.End
		}
	}
	return 100 * float64(covered) / float64(consensusLen)
}

// digestKmers enumerates every substring of every conserved region for
// each primer length in [minSize, maxSize], pairing the majority sequence
// with the degenerate sequence over the same interval.
func digestKmers(regions []Region, majority, ambiguous string, minSize, maxSize int) []kmer {
	var kmers []kmer
	for _, r := range regions {
		for size := minSize; size <= maxSize; size++ {
			for start := r.Start; start+size <= r.End; start++ {
				kmers = append(kmers, kmer{
					seq:    majority[start : start+size],
					ambSeq: ambiguous[start : start+size],
					start:  start,
					end:    start + size,
				})
			}
		}
	}
	return kmers
}
