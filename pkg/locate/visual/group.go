package visual

// Group 同一物理标记的重叠检测
type Group struct {
	// X, Y 按得分加权的质心（左上角坐标）
	X       float64
	Y       float64
	Score   float64
	Members []Candidate
}

// GroupCandidates 合并重叠候选
//
// 两个候选中心点的横向距离小于 w 且纵向距离小于 h 时视为重叠。
// 合并具有传递性：A 与 B 重叠、B 与 C 重叠时三者归为一组。
// 各组按首个成员的出现顺序返回。
func GroupCandidates(cands []Candidate, w, h int) []Group {
	n := len(cands)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if overlaps(cands[i], cands[j], w, h) {
				ri, rj := find(i), find(j)
				if ri != rj {
					// 保留较小下标作为根，保证输出顺序稳定
					if rj < ri {
						ri, rj = rj, ri
					}
					parent[rj] = ri
				}
			}
		}
	}

	index := make(map[int]int)
	var groups []Group
	for i, c := range cands {
		r := find(i)
		gi, ok := index[r]
		if !ok {
			gi = len(groups)
			index[r] = gi
			groups = append(groups, Group{})
		}
		groups[gi].Members = append(groups[gi].Members, c)
	}

	for i := range groups {
		groups[i].summarize()
	}
	return groups
}

// summarize 计算加权质心与平均得分
func (g *Group) summarize() {
	var sx, sy, sw float64
	for _, m := range g.Members {
		sx += float64(m.X) * m.Score
		sy += float64(m.Y) * m.Score
		sw += m.Score
	}
	if sw > 0 {
		g.X, g.Y = sx/sw, sy/sw
	} else {
		for _, m := range g.Members {
			g.X += float64(m.X)
			g.Y += float64(m.Y)
		}
		g.X /= float64(len(g.Members))
		g.Y /= float64(len(g.Members))
	}
	g.Score = sw / float64(len(g.Members))
}

// overlaps 候选尺寸相同，中心距离等于左上角距离
func overlaps(a, b Candidate, w, h int) bool {
	return abs(a.X-b.X) < w && abs(a.Y-b.Y) < h
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
