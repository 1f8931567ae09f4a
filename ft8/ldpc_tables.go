package ft8

/*
 * (174,91) LDPC Code Structure
 * Check-node adjacency of the FT8 parity check matrix. Each row lists the
 * 1-based codeword bit indices participating in one parity check. The
 * variable-node view is derived at init.
 */

// checkNodeTable[m] holds the codeword bits checked by parity equation m.
var checkNodeTable = [ParityChecks][]uint16{
	{4, 31, 59, 91, 92, 96, 153},
	{5, 32, 60, 93, 115, 146},
	{6, 24, 61, 94, 122, 151},
	{7, 33, 62, 95, 96, 143},
	{8, 25, 63, 83, 93, 96, 148},
	{6, 32, 64, 97, 126, 138},
	{5, 34, 65, 78, 98, 107, 154},
	{9, 35, 66, 99, 139, 146},
	{10, 36, 67, 100, 107, 126},
	{11, 37, 67, 87, 101, 139, 158},
	{12, 38, 68, 102, 105, 155},
	{13, 39, 69, 103, 149, 162},
	{8, 40, 70, 82, 104, 114, 145},
	{14, 41, 71, 88, 102, 123, 156},
	{15, 42, 59, 106, 123, 159},
	{1, 33, 72, 106, 107, 157},
	{16, 43, 73, 108, 141, 160},
	{17, 37, 74, 81, 109, 131, 154},
	{11, 44, 75, 110, 121, 166},
	{45, 55, 64, 111, 130, 161, 173},
	{8, 46, 71, 112, 119, 166},
	{18, 36, 76, 89, 113, 114, 143},
	{19, 38, 77, 104, 116, 163},
	{20, 47, 70, 92, 138, 165},
	{2, 48, 74, 113, 128, 160},
	{21, 45, 78, 83, 117, 121, 151},
	{22, 47, 58, 118, 127, 164},
	{16, 39, 62, 112, 134, 158},
	{23, 43, 79, 120, 131, 145},
	{19, 35, 59, 73, 110, 125, 161},
	{20, 36, 63, 94, 136, 161},
	{14, 31, 79, 98, 132, 164},
	{3, 44, 80, 124, 127, 169},
	{19, 46, 81, 117, 135, 167},
	{7, 49, 58, 90, 100, 105, 168},
	{12, 50, 61, 118, 119, 144},
	{13, 51, 64, 114, 118, 157},
	{24, 52, 76, 129, 148, 149},
	{25, 53, 69, 90, 101, 130, 156},
	{20, 46, 65, 80, 120, 140, 170},
	{21, 54, 77, 100, 140, 171},
	{35, 82, 133, 142, 171, 174},
	{14, 30, 83, 113, 125, 170},
	{4, 29, 68, 120, 134, 173},
	{1, 4, 52, 57, 86, 136, 152},
	{26, 51, 56, 91, 122, 137, 168},
	{52, 84, 110, 115, 145, 168},
	{7, 50, 81, 99, 132, 173},
	{23, 55, 67, 95, 172, 174},
	{26, 41, 77, 109, 141, 148},
	{2, 27, 41, 61, 62, 115, 133},
	{27, 40, 56, 124, 125, 126},
	{18, 49, 55, 124, 141, 167},
	{6, 33, 85, 108, 116, 156},
	{28, 48, 70, 85, 105, 129, 158},
	{9, 54, 63, 131, 147, 155},
	{22, 53, 68, 109, 121, 174},
	{3, 13, 48, 78, 95, 123},
	{31, 69, 133, 150, 155, 169},
	{12, 43, 66, 89, 97, 135, 159},
	{5, 39, 75, 102, 136, 167},
	{2, 54, 86, 101, 135, 164},
	{15, 56, 87, 108, 119, 171},
	{10, 44, 82, 91, 111, 144, 149},
	{23, 34, 71, 94, 127, 153},
	{11, 49, 88, 92, 142, 157},
	{29, 34, 87, 97, 147, 162},
	{30, 50, 60, 86, 137, 142, 162},
	{10, 53, 66, 84, 112, 128, 165},
	{22, 57, 85, 93, 140, 159},
	{28, 32, 72, 103, 132, 166},
	{28, 29, 84, 88, 117, 143, 150},
	{1, 26, 45, 80, 128, 147},
	{17, 27, 89, 103, 116, 153},
	{51, 57, 98, 163, 165, 172},
	{21, 37, 73, 138, 152, 169},
	{16, 47, 76, 130, 137, 154},
	{3, 24, 30, 72, 104, 139},
	{9, 40, 90, 106, 134, 151},
	{15, 58, 60, 74, 111, 150, 163},
	{18, 42, 79, 144, 146, 152},
	{25, 38, 65, 99, 122, 160},
	{17, 42, 75, 129, 170, 172},
}

// Derived adjacency, 0-based. varChecks[n] lists the checks containing bit
// n; varSlot[n][i] is bit n's position within checkNodeTable[varChecks[n][i]],
// so messages along one edge can be addressed from both ends.
var (
	varChecks [CodewordBits][]int
	varSlot   [CodewordBits][]int
)

func init() {
	for m, row := range checkNodeTable {
		for slot, v := range row {
			n := int(v) - 1
			varChecks[n] = append(varChecks[n], m)
			varSlot[n] = append(varSlot[n], slot)
		}
	}
}
