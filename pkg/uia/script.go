package uia

import (
	"fmt"

	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
)

// buildDumpScript 生成导出 UI 树的 Python 脚本
//
// 从起点向上取 scope.Up 层祖先（到桌面为止），自最上层祖先沿祖先链导出：
// 链上节点带全部子节点，链外的子节点只导出自身，起点向下导出 scope.Down 层（<0 不限）。
// 输出 {"root": 节点, "start": 起点 ID} 或 {"error": {"type", "code", "message"}}。
// 节点 ID 为 RuntimeId 以点号连接；属性名与 tree.Field 一致。
func buildDumpScript(handle int64, scope tree.Scope) string {
	return fmt.Sprintf(`
import json
import sys

def fail(kind, code, message):
    print(json.dumps({"error": {"type": kind, "code": code, "message": message}}))
    sys.exit(0)

try:
    from comtypes import COMError
    from pywinauto.uia_element_info import UIAElementInfo
    from pywinauto.timings import TimeoutError as PwaTimeoutError
except ImportError as e:
    fail("ImportError", 0, str(e))

PROPS = {
    "LocalizedControlType": 30004,
    "AccessKey": 30007,
    "HasKeyboardFocus": 30008,
    "HelpText": 30013,
    "IsOffscreen": 30022,
    "Value": 30045,
    "ExpandCollapseState": 30070,
    "IsSelected": 30079,
    "ToggleState": 30086,
    "LegacyIAccessibleName": 30092,
    "LegacyIAccessibleValue": 30093,
    "LegacyIAccessibleRole": 30095,
}

def plain(v):
    if v is None or isinstance(v, (bool, int, float, str)):
        return v
    return str(v)

def props(info):
    el = info.element
    rect = info.rectangle
    out = {
        "Name": info.name or "",
        "AutomationId": info.automation_id or "",
        "ClassName": info.class_name or "",
        "ControlType": el.CurrentControlType,
        "ProcessId": info.process_id,
        "FrameworkId": info.framework_id or "",
        "RuntimeId": ".".join(str(x) for x in (info.runtime_id or ())),
        "NativeWindowHandle": info.handle or 0,
        "BoundingRectangle": [rect.left, rect.top, rect.right, rect.bottom],
        "IsEnabled": bool(info.enabled),
    }
    for name, pid in PROPS.items():
        try:
            out[name] = plain(el.GetCurrentPropertyValue(pid))
        except COMError:
            pass
    return out

seen = set()

def node_id(info, path):
    rid = ".".join(str(x) for x in (info.runtime_id or ()))
    if not rid or rid in seen:
        rid = "path:" + path
    seen.add(rid)
    return rid

UP = %d
DOWN = %d

def rid(info):
    return ".".join(str(x) for x in (info.runtime_id or ()))

def walk(info, depth, path):
    n = {"id": node_id(info, path), "props": props(info)}
    if DOWN < 0 or depth < DOWN:
        kids = []
        for i, child in enumerate(info.children()):
            kids.append(walk(child, depth + 1, path + "." + str(i)))
        if kids:
            n["children"] = kids
    return n

found = {}

def spine(chain, i, path):
    info = chain[i]
    if i == len(chain) - 1:
        n = walk(info, 0, path)
        found["start"] = n["id"]
        return n
    n = {"id": node_id(info, path), "props": props(info)}
    target = rid(chain[i + 1])
    kids = []
    for j, child in enumerate(info.children()):
        p = path + "." + str(j)
        if "start" not in found and target and rid(child) == target:
            kids.append(spine(chain, i + 1, p))
        else:
            kids.append({"id": node_id(child, p), "props": props(child)})
    if kids:
        n["children"] = kids
    return n

try:
    handle = %d
    start = UIAElementInfo(handle) if handle else UIAElementInfo()
    chain = [start]
    while len(chain) <= UP:
        parent = chain[0].parent
        if parent is None:
            break
        chain.insert(0, parent)
    root = spine(chain, 0, "0")
    if "start" not in found:
        # 起点在导出过程中离开了父节点
        fail("ElementNotAvailable", 0, "起点不在祖先的子节点中")
    print(json.dumps({"root": root, "start": found["start"]}))
except COMError as e:
    fail("COMError", e.hresult, str(e))
except PwaTimeoutError as e:
    fail("TimeoutError", 0, str(e))
except Exception as e:
    fail(type(e).__name__, 0, str(e))
`, scope.Up, scope.Down, handle)
}
