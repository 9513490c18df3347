package boost

// Node is one tree node. Internal nodes send x[Feature] < Threshold (or NaN)
// to Left and everything else to Right. Leaves carry Value, already scaled by
// the learning rate.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Gain      float64 `json:"gain,omitempty"`
	Cover     float64 `json:"cover"`
	Leaf      bool    `json:"leaf"`

	bin int
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value reached by x.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] >= n.Threshold {
			i = n.Right
		} else {
			i = n.Left
		}
	}
}

// predictBinned walks the tree using training bins; only valid for trees
// grown on b.
func (t *Tree) predictBinned(b *binned, row int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if int(b.bins[n.Feature][row]) <= n.bin {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type grower struct {
	data     *binned
	grad     []float64
	hess     []float64
	features []int
	nodes    []Node
	cfg      Config
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// grow builds the subtree for rows and returns its root index.
func (g *grower) grow(rows []int, depth int) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	var sumG, sumH float64
	for _, r := range rows {
		sumG += g.grad[r]
		sumH += g.hess[r]
	}
	leaf := Node{
		Leaf:  true,
		Value: -sumG / (sumH + g.cfg.Lambda) * g.cfg.LearningRate,
		Cover: sumH,
	}

	if depth >= g.cfg.MaxDepth || len(rows) < 2 || sumH < 2*g.cfg.MinChildWeight {
		g.nodes[idx] = leaf
		return idx
	}
	best, ok := g.bestSplit(rows, sumG, sumH)
	if !ok {
		g.nodes[idx] = leaf
		return idx
	}

	bins := g.data.bins[best.feature]
	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if int(bins[r]) <= best.bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: g.data.cuts[best.feature][best.bin],
		Left:      l,
		Right:     r,
		Gain:      best.gain,
		Cover:     sumH,
		bin:       best.bin,
	}
	return idx
}

// bestSplit scans the gradient histogram of every sampled feature. A split
// needs positive gain and MinChildWeight hessian on both sides.
func (g *grower) bestSplit(rows []int, sumG, sumH float64) (split, bool) {
	lambda := g.cfg.Lambda
	parent := sumG * sumG / (sumH + lambda)
	best := split{gain: 0}
	found := false

	for _, f := range g.features {
		nb := g.data.nbins[f]
		if nb < 2 {
			continue
		}
		histG := make([]float64, nb)
		histH := make([]float64, nb)
		bins := g.data.bins[f]
		for _, r := range rows {
			histG[bins[r]] += g.grad[r]
			histH[bins[r]] += g.hess[r]
		}

		var gl, hl float64
		for b := 0; b < nb-1; b++ {
			gl += histG[b]
			hl += histH[b]
			gr, hr := sumG-gl, sumH-hl
			if hl < g.cfg.MinChildWeight || hr < g.cfg.MinChildWeight {
				continue
			}
			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, bin: b, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
