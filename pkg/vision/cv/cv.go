// Package cv 基于 OpenCV 的归一化互相关计算
//
// 基本用法:
//
//	corr := cv.NewCorrelator()
//	scores, err := corr.Correlate(frame.Image, pattern.Image)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(scores.At(0, 0))
//
// 默认在灰度图上计算 TM_CCOEFF_NORMED；WithRGB(true) 时分别计算三个通道，
// 每个偏移取最小通道得分。
package cv

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// Correlator gocv 实现的 visual.Correlator
type Correlator struct {
	rgb bool
}

// Option Correlator 选项
type Option func(*Correlator)

// WithRGB 是否按 RGB 三通道分别计算
func WithRGB(rgb bool) Option {
	return func(c *Correlator) {
		c.rgb = rgb
	}
}

// NewCorrelator 创建互相关计算器
func NewCorrelator(opts ...Option) *Correlator {
	c := &Correlator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correlate 计算模板在图像每个偏移处的 NCC 得分
func (c *Correlator) Correlate(img, tmpl image.Image) (*visual.ScoreMap, error) {
	src, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	search, err := ImageToMat(tmpl)
	if err != nil {
		return nil, err
	}
	defer search.Close()

	if err := checkSourceLargerThanSearch(src, search); err != nil {
		return nil, err
	}

	var result gocv.Mat
	if c.rgb {
		result = channelMinScores(src, search)
	} else {
		result = grayScores(src, search)
	}
	defer result.Close()

	return toScoreMap(result), nil
}

// grayScores 灰度图 TM_CCOEFF_NORMED
func grayScores(src, search gocv.Mat) gocv.Mat {
	srcGray := ToGray(src)
	searchGray := ToGray(search)
	defer srcGray.Close()
	defer searchGray.Close()

	return matchTemplate(srcGray, searchGray)
}

func matchTemplate(src, search gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	defer mask.Close()

	result := gocv.NewMat()
	gocv.MatchTemplate(src, search, &result, gocv.TmCcoeffNormed, mask)
	return result
}

// toScoreMap 复制为行优先得分矩阵；NaN/Inf（常量区域）按 0 处理
func toScoreMap(result gocv.Mat) *visual.ScoreMap {
	rows, cols := result.Rows(), result.Cols()
	m := &visual.ScoreMap{Cols: cols, Rows: rows, Scores: make([]float32, rows*cols)}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.Scores[y*cols+x] = sanitize(result.GetFloatAt(y, x))
		}
	}
	return m
}

func sanitize(v float32) float32 {
	f := float64(v)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f > 1:
		return 1
	case f < -1:
		return -1
	}
	return v
}

// checkSourceLargerThanSearch 检查源图像是否不小于模板
func checkSourceLargerThanSearch(source, search gocv.Mat) error {
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// ImageSizeError 模板大于源图像
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("模板尺寸 %dx%d 大于源图像 %dx%d",
		e.SearchSize[0], e.SearchSize[1], e.SourceSize[0], e.SourceSize[1])
}
