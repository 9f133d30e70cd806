package executor

import (
	"image"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// stringParam 读取字符串参数
func stringParam(p map[string]interface{}, key string) string {
	return strings.TrimSpace(cast.ToString(p[key]))
}

// stringsParam 读取字符串列表；单个字符串视为一个元素
func stringsParam(p map[string]interface{}, key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, paramError("%s 应为字符串列表: %v", key, err)
	}
	return list, nil
}

// floatParam 读取数值参数，ok 表示参数存在
func floatParam(p map[string]interface{}, key string) (float64, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, paramError("%s 应为数值: %v", key, err)
	}
	return f, true, nil
}

// intParam 读取整数参数，ok 表示参数存在
func intParam(p map[string]interface{}, key string) (int, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false, paramError("%s 应为整数: %v", key, err)
	}
	return n, true, nil
}

// intsParam 读取整数列表；单个数值视为一个元素
func intsParam(p map[string]interface{}, key string) ([]int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	if n, err := cast.ToIntE(v); err == nil {
		return []int{n}, nil
	}
	list, err := cast.ToIntSliceE(v)
	if err != nil {
		return nil, paramError("%s 应为整数列表: %v", key, err)
	}
	return list, nil
}

// boolParam 读取布尔参数
func boolParam(p map[string]interface{}, key string, def bool) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// callOptions 解析 timeout（秒）与 no_fail
//
// 未指定 timeout 时使用定位器默认超时；0 表示只查找一次。
func callOptions(p map[string]interface{}) ([]locate.CallOption, error) {
	var opts []locate.CallOption
	secs, ok, err := floatParam(p, "timeout")
	if err != nil {
		return nil, err
	}
	if ok && secs >= 0 {
		opts = append(opts, locate.WithTimeout(time.Duration(secs*float64(time.Second))))
	}
	if boolParam(p, "no_fail", false) {
		opts = append(opts, locate.NoFail())
	}
	return opts, nil
}

// regionParam 解析查找区域：[x, y, w, h] 或 "x,y,w,h"
func regionParam(p map[string]interface{}) (image.Rectangle, error) {
	v, ok := p["region"]
	if !ok || v == nil {
		return image.Rectangle{}, nil
	}
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return image.Rectangle{}, nil
		}
		parts := strings.Split(s, ",")
		list := make([]interface{}, len(parts))
		for i, part := range parts {
			list[i] = strings.TrimSpace(part)
		}
		v = list
	}
	nums, err := cast.ToIntSliceE(v)
	if err != nil || len(nums) != 4 {
		return image.Rectangle{}, paramError("region 格式应为 x,y,w,h: %v", p["region"])
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return image.Rectangle{}, paramError("region 宽高必须为正数: %v", nums)
	}
	return image.Rect(nums[0], nums[1], nums[0]+nums[2], nums[1]+nums[3]), nil
}

// targetParam 解析目标位置
func targetParam(p map[string]interface{}) (visual.TargetPos, error) {
	switch strings.ToLower(stringParam(p, "target")) {
	case "", "center", "mid":
		return visual.TargetPosMid, nil
	case "top_left":
		return visual.TargetPosTopLeft, nil
	case "top_right":
		return visual.TargetPosTopRight, nil
	case "bottom_left":
		return visual.TargetPosBottomLeft, nil
	case "bottom_right":
		return visual.TargetPosBottomRight, nil
	default:
		return 0, paramError("未知的 target: %s", stringParam(p, "target"))
	}
}
