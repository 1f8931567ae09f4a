package ft8

/*
 * LDPC Belief Propagation Decoder
 * Iterative soft decoder for the (174,91) code. Messages flow between the
 * 83 check nodes and 174 variable nodes until every parity check is
 * satisfied or the iteration budget runs out.
 */

const maxCheckDegree = 7

// DecodeLDPC runs belief propagation on the 174 log-likelihoods and returns
// the decoded codeword bits together with the number of unsatisfied parity
// checks at the best iteration. A zero error count means a valid codeword;
// anything else is a decode failure the caller maps to ErrLDPCFailed. The
// input LLR slice is clamped in place.
func DecodeLDPC(llr []float32, maxIterations int) (codeword [CodewordBits]uint8, errors int) {
	// Clamp the channel values so atanh stays finite.
	for i := range llr {
		if llr[i] > 20.0 {
			llr[i] = 20.0
		} else if llr[i] < -20.0 {
			llr[i] = -20.0
		}
	}

	// tov[n] holds messages from bit n's checks to bit n, indexed by the
	// bit's edge order. toc[m] holds messages from check m's bits to check
	// m, indexed by the check's slot order.
	var tov [CodewordBits][]float32
	var toc [ParityChecks][maxCheckDegree]float32
	for n := 0; n < CodewordBits; n++ {
		tov[n] = make([]float32, len(varChecks[n]))
	}

	errors = ParityChecks

	for iter := 0; iter < maxIterations; iter++ {
		// Hard decision from the current posterior.
		var plain [CodewordBits]uint8
		for n := 0; n < CodewordBits; n++ {
			sum := llr[n]
			for _, m := range tov[n] {
				sum += m
			}
			if sum > 0 {
				plain[n] = 1
			}
		}

		errCount := countParityErrors(&plain)
		if errCount < errors {
			errors = errCount
			codeword = plain
		}
		if errCount == 0 {
			break
		}

		// Variable to check: posterior minus the incoming edge.
		for n := 0; n < CodewordBits; n++ {
			sum := llr[n]
			for _, m := range tov[n] {
				sum += m
			}
			for i, check := range varChecks[n] {
				toc[check][varSlot[n][i]] = fastTanh(-0.5 * (sum - tov[n][i]))
			}
		}

		// Check to variable: product of the other edges of the check.
		for n := 0; n < CodewordBits; n++ {
			for i, check := range varChecks[n] {
				slot := varSlot[n][i]
				prod := float32(1.0)
				for s := range checkNodeTable[check] {
					if s != slot {
						prod *= toc[check][s]
					}
				}
				tov[n][i] = -2.0 * fastAtanh(prod)
			}
		}
	}

	return codeword, errors
}

// countParityErrors returns the number of parity checks the hard-decision
// codeword violates.
func countParityErrors(codeword *[CodewordBits]uint8) int {
	errors := 0
	for _, row := range checkNodeTable {
		var x uint8
		for _, v := range row {
			x ^= codeword[v-1]
		}
		if x != 0 {
			errors++
		}
	}
	return errors
}

// fastTanh is a rational approximation of tanh, accurate enough for message
// passing and much cheaper than math.Tanh.
func fastTanh(x float32) float32 {
	if x < -4.97 {
		return -1.0
	}
	if x > 4.97 {
		return 1.0
	}
	x2 := x * x
	a := x * (945.0 + x2*(105.0+x2))
	b := 945.0 + x2*(420.0+x2*15.0)
	return a / b
}

// fastAtanh is the matching rational approximation of atanh on (-1, 1).
func fastAtanh(x float32) float32 {
	x2 := x * x
	a := x * (945.0 + x2*(-735.0+x2*64.0))
	b := 945.0 + x2*(-1050.0+x2*225.0)
	return a / b
}
