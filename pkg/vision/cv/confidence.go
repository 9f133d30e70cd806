package cv

import (
	"gocv.io/x/gocv"
)

// channelMinScores 对三个通道分别计算得分矩阵，逐点取最小值
//
// 像素值先截断到 [10, 245]，减弱纯黑纯白区域对相关度的影响。
func channelMinScores(src, search gocv.Mat) gocv.Mat {
	srcCropped := cropToValidRange(src)
	searchCropped := cropToValidRange(search)
	defer srcCropped.Close()
	defer searchCropped.Close()

	srcChannels := gocv.Split(srcCropped)
	searchChannels := gocv.Split(searchCropped)
	defer func() {
		for _, ch := range srcChannels {
			ch.Close()
		}
		for _, ch := range searchChannels {
			ch.Close()
		}
	}()

	var result gocv.Mat
	for i := 0; i < len(srcChannels) && i < len(searchChannels); i++ {
		scores := matchTemplate(srcChannels[i], searchChannels[i])
		if i == 0 {
			result = scores
			continue
		}
		gocv.Min(result, scores, &result)
		scores.Close()
	}
	return result
}

// cropToValidRange 将像素值限制在 [10, 245]
func cropToValidRange(img gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Threshold(img, &dst, 245, 245, gocv.ThresholdTrunc)
	gocv.Threshold(dst, &dst, 10, 0, gocv.ThresholdToZero)
	return dst
}
