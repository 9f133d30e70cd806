package visual

import (
	"fmt"
)

// Candidate 候选位置，坐标相对于快照左上角
type Candidate struct {
	X     int
	Y     int
	Score float64
}

// Candidates 返回快照中所有得分严格大于阈值的偏移，按行优先顺序排列
//
// 模板大于快照时没有候选。
func Candidates(corr Correlator, frame *Frame, p Pattern) ([]Candidate, error) {
	fw, fh := frame.Size()
	tw, th := p.Size()
	if tw > fw || th > fh {
		return nil, nil
	}

	scores, err := corr.Correlate(frame.Image, p.Image)
	if err != nil {
		return nil, err
	}
	if want := (fw - tw + 1) * (fh - th + 1); scores.Cols*scores.Rows != want || len(scores.Scores) != want {
		return nil, fmt.Errorf("得分矩阵尺寸异常: %dx%d (期望 %dx%d)", scores.Cols, scores.Rows, fw-tw+1, fh-th+1)
	}

	var out []Candidate
	for y := 0; y < scores.Rows; y++ {
		for x := 0; x < scores.Cols; x++ {
			s := float64(scores.At(x, y))
			if s > p.Similarity {
				out = append(out, Candidate{X: x, Y: y, Score: s})
			}
		}
	}
	return out, nil
}

// Best 选出得分最高的候选；得分相同时取行优先扫描顺序中最先出现的
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score || (c.Score == best.Score && before(c, best)) {
			best = c
		}
	}
	return best, true
}

// before 行优先顺序：先比较 y，再比较 x
func before(a, b Candidate) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
