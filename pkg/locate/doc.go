// Package locate 实现查找与等待的轮询重试引擎
//
// 视觉定位（pkg/locate/visual）与 UI 树定位（pkg/locate/tree）共用同一个引擎：
// 反复获取快照、评估候选、按模式决定返回或继续轮询，直到超时。
//
// 基本用法:
//
//	p := locate.NewPoller(locate.WithName("visual"))
//	out, err := locate.Poll[Frame, Candidate](p, probe, locate.Request{
//		Mode:    locate.ModeAppear,
//		Timeout: locate.UseDefault,
//	})
//	if errors.Is(err, locate.ErrNotFound) {
//		// 超时未找到
//	}
package locate
