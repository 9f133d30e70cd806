package executor

import (
	"context"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/zoeyai/zoeylocate/pkg/auto/grid"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
	"github.com/zoeyai/zoeylocate/pkg/process"
	"github.com/zoeyai/zoeylocate/pkg/window"
)

// Point 坐标
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func toPoint(p image.Point) *Point { return &Point{X: p.X, Y: p.Y} }

// MatchResult 单个视觉匹配
type MatchResult struct {
	Found  bool          `json:"found" yaml:"found"`
	Match  *visual.Match `json:"match,omitempty" yaml:"match,omitempty"`
	Target *Point        `json:"target,omitempty" yaml:"target,omitempty"`
	Cells  []Point       `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// MatchesResult 多个视觉匹配
type MatchesResult struct {
	Count   int            `json:"count" yaml:"count"`
	Matches []visual.Match `json:"matches" yaml:"matches"`
}

// ExistsResult 存在性检查
type ExistsResult struct {
	Exists bool `json:"exists" yaml:"exists"`
}

// VanishResult 等待消失
type VanishResult struct {
	Vanished bool `json:"vanished" yaml:"vanished"`
}

// Rect 矩形
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ElementInfo 控件信息
type ElementInfo struct {
	ID           string `json:"id" yaml:"id"`
	Kind         string `json:"kind" yaml:"kind"`
	ControlType  string `json:"control_type" yaml:"control_type"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	AutomationID string `json:"automation_id,omitempty" yaml:"automation_id,omitempty"`
	ClassName    string `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	ProcessID    int    `json:"process_id,omitempty" yaml:"process_id,omitempty"`
	Rect         *Rect  `json:"rect,omitempty" yaml:"rect,omitempty"`
}

// ElementResult 单个控件
type ElementResult struct {
	Found   bool         `json:"found" yaml:"found"`
	Element *ElementInfo `json:"element,omitempty" yaml:"element,omitempty"`
	Target  *Point       `json:"target,omitempty" yaml:"target,omitempty"`
	Cells   []Point      `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// ElementsResult 多个控件
type ElementsResult struct {
	Count    int           `json:"count" yaml:"count"`
	Elements []ElementInfo `json:"elements" yaml:"elements"`
}

// LastMatchResult 最近一次成功查找
type LastMatchResult struct {
	Images   []visual.Match `json:"images,omitempty" yaml:"images,omitempty"`
	Elements []ElementInfo  `json:"elements,omitempty" yaml:"elements,omitempty"`
}

func describe(e *tree.Element) ElementInfo {
	info := ElementInfo{
		ID:           string(e.Ref),
		Kind:         e.Kind.Name,
		ControlType:  e.ControlType().String(),
		Name:         e.Name(),
		AutomationID: e.AutomationID(),
		ClassName:    e.ClassName(),
		ProcessID:    e.ProcessID(),
	}
	if r, err := e.Rect(); err == nil {
		info.Rect = &Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
	}
	return info
}

// gridTarget "rows.cols.row.col" 返回单元中心；"rows.cols" 返回全部单元中心
func gridTarget(rect image.Rectangle, spec string) (*Point, []Point, error) {
	if !grid.IsCellsSpec(spec) {
		pt, err := grid.CenterOf(rect, spec)
		if err != nil {
			return nil, nil, paramError("%v", err)
		}
		return toPoint(pt), nil, nil
	}
	pts, err := grid.Cells(rect, spec)
	if err != nil {
		return nil, nil, paramError("%v", err)
	}
	cells := make([]Point, len(pts))
	for i, pt := range pts {
		cells[i] = Point{X: pt.X, Y: pt.Y}
	}
	return &cells[0], cells, nil
}

// ==================== 视觉任务 ====================

// imageQuery 解析 images / similarity / region
func (e *Executor) imageQuery(p map[string]interface{}) (*visual.Locator, *visual.PatternQuery, error) {
	refs, err := stringsParam(p, "images")
	if err != nil {
		return nil, nil, err
	}
	if len(refs) == 0 {
		return nil, nil, paramError("缺少 images 参数")
	}
	similarity, ok, err := floatParam(p, "similarity")
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		similarity = visual.UseDefaultSimilarity
	}
	q, err := e.store.Query(refs, similarity)
	if err != nil {
		return nil, nil, err
	}

	region, err := regionParam(p)
	if err != nil {
		return nil, nil, err
	}
	if title := stringParam(p, "window"); title != "" {
		w, err := e.findWindow(title)
		if err != nil {
			return nil, nil, err
		}
		region = windowRegion(w.Bounds, region)
		if region.Empty() {
			return nil, nil, paramError("region 不在窗口 %q 内", w.Title)
		}
	}
	l := e.images
	if !region.Empty() {
		l = l.WithRegion(region)
	}
	e.lastImages = l
	return l, q, nil
}

// executeImageFind 查找（或等待）第一个匹配
func (e *Executor) executeImageFind(p map[string]interface{}, wait bool) (interface{}, error) {
	l, q, err := e.imageQuery(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	pos, err := targetParam(p)
	if err != nil {
		return nil, err
	}

	var m *visual.Match
	if wait {
		m, err = l.Wait(q, opts...)
	} else {
		m, err = l.Find(q, opts...)
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &MatchResult{Found: false}, nil
	}

	res := &MatchResult{Found: true, Match: m, Target: toPoint(m.Target(pos))}
	if spec := stringParam(p, "grid"); spec != "" {
		if res.Target, res.Cells, err = gridTarget(m.Rect(), spec); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// executeImageFindAll 全部匹配；markers 为 true 时合并相邻候选
func (e *Executor) executeImageFindAll(p map[string]interface{}, markers bool) (interface{}, error) {
	l, q, err := e.imageQuery(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}

	var matches []visual.Match
	if markers {
		matches, err = l.FindMarkers(q, opts...)
	} else {
		matches, err = l.FindAll(q, opts...)
	}
	if err != nil {
		return nil, err
	}
	return &MatchesResult{Count: len(matches), Matches: matches}, nil
}

func (e *Executor) executeImageVanish(p map[string]interface{}) (interface{}, error) {
	l, q, err := e.imageQuery(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	ok, err := l.WaitVanish(q, opts...)
	if err != nil {
		return nil, err
	}
	return &VanishResult{Vanished: ok}, nil
}

func (e *Executor) executeImageExists(p map[string]interface{}) (interface{}, error) {
	l, q, err := e.imageQuery(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	ok, err := l.Exists(q, opts...)
	if err != nil {
		return nil, err
	}
	return &ExistsResult{Exists: ok}, nil
}

// findWindow 按标题查找窗口；未找到归为 NOT_FOUND
func (e *Executor) findWindow(title string) (*window.Info, error) {
	w, err := window.Find(e.windows, title)
	if err != nil {
		return nil, &TaskError{Status: StatusFailed, Reason: ReasonNotFound, Message: err.Error()}
	}
	return w, nil
}

// windowRegion 将相对窗口的区域换算为屏幕坐标并裁剪到窗口内；region 为空时取整个窗口
func windowRegion(bounds, region image.Rectangle) image.Rectangle {
	if region.Empty() {
		return bounds
	}
	return region.Add(bounds.Min).Intersect(bounds)
}

// ==================== 控件树任务 ====================

// criteria 解析控件查找条件
func (e *Executor) criteria(p map[string]interface{}) (*tree.Locator, *tree.Criteria, error) {
	if e.elements == nil {
		return nil, nil, unsupported("控件树查找需要 Windows 与 pywinauto")
	}

	var opts []tree.CriteriaOption
	if v := stringParam(p, "name"); v != "" {
		opts = append(opts, tree.Name(v))
	}
	if subs, err := stringsParam(p, "name_contains"); err != nil {
		return nil, nil, err
	} else if len(subs) > 0 {
		opts = append(opts, tree.Where(tree.FieldName, tree.Contains(subs...)))
	}
	if v := stringParam(p, "name_regex"); v != "" {
		opts = append(opts, tree.Where(tree.FieldName, tree.Regexp(v)))
	}
	if v := stringParam(p, "automation_id"); v != "" {
		opts = append(opts, tree.AutomationID(v))
	}
	if v := stringParam(p, "class_name"); v != "" {
		opts = append(opts, tree.ClassName(v))
	}
	if v := stringParam(p, "control_type"); v != "" {
		ct, err := tree.ParseControlType(v)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tree.OfType(ct))
	}

	// where: {"HelpText": "..."}，按键排序保证错误信息稳定
	if raw, ok := p["where"].(map[string]interface{}); ok {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f, err := tree.ParseField(k)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, tree.Where(f, tree.Exact(stringParam(raw, k))))
		}
	}

	pids, err := intsParam(p, "pid")
	if err != nil {
		return nil, nil, err
	}

	// window: 有句柄时作为搜索起点，否则按所属进程过滤
	var w *window.Info
	if title := stringParam(p, "window"); title != "" {
		if w, err = e.findWindow(title); err != nil {
			return nil, nil, err
		}
		if w.Handle == 0 {
			pids = append(pids, w.PID)
			w = nil
		}
	}
	if name := stringParam(p, "process"); name != "" {
		found, err := process.PIDsByName(context.Background(), name)
		if err != nil {
			return nil, nil, paramError("%v", err)
		}
		pids = append(pids, found...)
	}
	if len(pids) > 0 {
		opts = append(opts, tree.InProcess(pids...))
	}

	if n, ok, err := intParam(p, "exact_level"); err != nil {
		return nil, nil, err
	} else if ok {
		opts = append(opts, tree.ExactLevel(n))
	}
	if n, ok, err := intParam(p, "max_descend"); err != nil {
		return nil, nil, err
	} else if ok {
		opts = append(opts, tree.MaxDescendLevel(n))
	}

	c, err := tree.NewCriteria(opts...)
	if err != nil {
		return nil, nil, err
	}

	l := e.elements
	if root := stringParam(p, "root"); root != "" {
		l = l.WithRoot(tree.NodeRef(root))
	} else if w != nil {
		l = l.WithRoot(tree.NodeRef(strconv.FormatInt(w.Handle, 10)))
	}
	e.lastTree = l
	return l, c, nil
}

func (e *Executor) executeElementFind(p map[string]interface{}, wait bool) (interface{}, error) {
	l, c, err := e.criteria(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}

	var el *tree.Element
	if wait {
		el, err = l.Wait(c, opts...)
	} else {
		el, err = l.Find(c, opts...)
	}
	if err != nil {
		return nil, err
	}
	if el == nil {
		return &ElementResult{Found: false}, nil
	}

	info := describe(el)
	res := &ElementResult{Found: true, Element: &info}
	r, rectErr := el.Rect()
	if spec := stringParam(p, "grid"); spec != "" {
		if rectErr != nil {
			return nil, paramError("%v", rectErr)
		}
		if res.Target, res.Cells, err = gridTarget(r, spec); err != nil {
			return nil, err
		}
	} else if rectErr == nil {
		res.Target = toPoint(grid.Center(r, nil))
	}
	return res, nil
}

func (e *Executor) executeElementFindAll(p map[string]interface{}) (interface{}, error) {
	l, c, err := e.criteria(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	elems, err := l.FindAll(c, opts...)
	if err != nil {
		return nil, err
	}
	infos := make([]ElementInfo, len(elems))
	for i, el := range elems {
		infos[i] = describe(el)
	}
	return &ElementsResult{Count: len(infos), Elements: infos}, nil
}

func (e *Executor) executeElementVanish(p map[string]interface{}) (interface{}, error) {
	l, c, err := e.criteria(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	ok, err := l.WaitVanish(c, opts...)
	if err != nil {
		return nil, err
	}
	return &VanishResult{Vanished: ok}, nil
}

func (e *Executor) executeElementExists(p map[string]interface{}) (interface{}, error) {
	l, c, err := e.criteria(p)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(p)
	if err != nil {
		return nil, err
	}
	ok, err := l.Exists(c, opts...)
	if err != nil {
		return nil, err
	}
	return &ExistsResult{Exists: ok}, nil
}

// executeLastMatch 返回最近一次成功查找；kind 为 image / element，默认 image
func (e *Executor) executeLastMatch(p map[string]interface{}) (interface{}, error) {
	switch strings.ToLower(stringParam(p, "kind")) {
	case "", "image":
		if e.lastImages == nil {
			return nil, locate.ErrNoLastMatch
		}
		if _, err := e.lastImages.LastMatch(); err != nil {
			return nil, err
		}
		return &LastMatchResult{Images: e.lastImages.LastMatches()}, nil
	case "element":
		if e.lastTree == nil {
			return nil, locate.ErrNoLastMatch
		}
		if _, err := e.lastTree.LastMatch(); err != nil {
			return nil, err
		}
		elems := e.lastTree.LastMatches()
		infos := make([]ElementInfo, len(elems))
		for i, el := range elems {
			infos[i] = describe(el)
		}
		return &LastMatchResult{Elements: infos}, nil
	default:
		return nil, paramError("kind 应为 image 或 element: %s", stringParam(p, "kind"))
	}
}
