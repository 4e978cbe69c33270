package fec

// GF256 is a pure Go Cauchy Reed-Solomon codec. It uses the same generator
// matrix as Cauchy, so shards produced by one decode with the other.
type GF256 struct {
	k, m int
	rows [][]byte // rows[j][c]: coefficient of data c in recovery j
}

// NewGF256 builds the Cauchy rows for k data and m recovery shards.
func NewGF256(k, m int) (*GF256, error) {
	if err := checkShape(k, m); err != nil {
		return nil, err
	}
	rows := make([][]byte, m)
	for j := 0; j < m; j++ {
		rows[j] = make([]byte, k)
		for c := 0; c < k; c++ {
			rows[j][c] = cauchyCoeff(k+j, c)
		}
	}
	return &GF256{k: k, m: m, rows: rows}, nil
}

func (g *GF256) DataShards() int   { return g.k }
func (g *GF256) ParityShards() int { return g.m }

// Encode generates the recovery shards in place.
func (g *GF256) Encode(shards [][]byte) error {
	if len(shards) != g.k+g.m {
		return ErrShardCount
	}
	if _, err := prepareParity(shards, g.k); err != nil {
		return err
	}
	for j := 0; j < g.m; j++ {
		p := shards[g.k+j]
		clear(p)
		for c := 0; c < g.k; c++ {
			gfMulBytes(p, shards[c], g.rows[j][c])
		}
	}
	return nil
}

// ReconstructData solves for the missing data shards from the first k
// present shards by inverting their generator rows.
func (g *GF256) ReconstructData(shards [][]byte) error {
	size, present, err := shardSize(shards, g.k+g.m)
	if err != nil {
		return err
	}
	missing := missingData(shards, g.k)
	if len(missing) == 0 {
		return nil
	}
	if present < g.k {
		return ErrTooFewShards
	}
	// Data shards come first, so present data contribute identity rows.
	sel := make([]int, 0, g.k)
	for i := 0; i < len(shards) && len(sel) < g.k; i++ {
		if len(shards[i]) != 0 {
			sel = append(sel, i)
		}
	}
	a := make([][]byte, g.k)
	for r, idx := range sel {
		row := make([]byte, g.k)
		if idx < g.k {
			row[idx] = 1
		} else {
			copy(row, g.rows[idx-g.k])
		}
		a[r] = row
	}
	inv, ok := gfInvertMatrix(a)
	if !ok {
		return ErrSingular
	}
	for _, d := range missing {
		out := fillShard(shards[d], size)
		for r, idx := range sel {
			gfMulBytes(out, shards[idx], inv[d][r])
		}
		shards[d] = out
	}
	return nil
}
