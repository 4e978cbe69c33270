package fec

// GF(256) arithmetic using log/antilog tables with primitive polynomial 0x11d.

var (
	gfExp [512]byte
	gfLog [256]byte
)

func init() {
	// generator = 0x02, primitive polynomial = 0x11d
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfLog[byte(x)] = byte(i)
		x <<= 1
		if (x & 0x100) != 0 { // carry out from bit 8
			x ^= 0x11d
		}
	}
	for i := 255; i < 512; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfInv(a byte) byte {
	if a == 0 {
		return 0
	}
	return gfExp[255-int(gfLog[a])]
}

// gfMulBytes multiplies src by scalar a and xors into dst: dst ^= a*src
func gfMulBytes(dst, src []byte, a byte) {
	if a == 0 {
		return
	}
	if a == 1 {
		xorBytes(dst, src)
		return
	}
	la := int(gfLog[a])
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		if s := src[i]; s != 0 {
			dst[i] ^= gfExp[la+int(gfLog[s])]
		}
	}
}

func xorBytes(dst, src []byte) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}

// cauchyCoeff is the coefficient of data shard c in recovery shard r (r >= k).
// Rows are 1/(r xor c), so a row depends only on its own index and any
// square submatrix of the stacked identity and Cauchy rows is invertible.
func cauchyCoeff(r, c int) byte {
	return gfInv(byte(r ^ c))
}

// gfInvertMatrix inverts a square matrix by Gauss-Jordan elimination.
func gfInvertMatrix(A [][]byte) ([][]byte, bool) {
	n := len(A)
	aug := make([][]byte, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]byte, n*2)
		copy(aug[i][:n], A[i])
		aug[i][n+i] = 1
	}
	row := 0
	for col := 0; col < n && row < n; col++ {
		pivot := -1
		for r := row; r < n; r++ {
			if aug[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			continue
		}
		aug[row], aug[pivot] = aug[pivot], aug[row]
		inv := gfInv(aug[row][col])
		for j := 0; j < 2*n; j++ {
			aug[row][j] = gfMul(aug[row][j], inv)
		}
		for r := 0; r < n; r++ {
			if r == row {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			gfMulBytes(aug[r], aug[row], factor)
		}
		row++
	}
	if row < n {
		return nil, false
	}
	invA := make([][]byte, n)
	for i := 0; i < n; i++ {
		invA[i] = aug[i][n:]
	}
	return invA, true
}
