package tree

import (
	"sort"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// Field UI Automation 属性名
type Field string

const (
	FieldName                 Field = "Name"
	FieldAutomationID         Field = "AutomationId"
	FieldClassName            Field = "ClassName"
	FieldControlType          Field = "ControlType"
	FieldLocalizedControlType Field = "LocalizedControlType"
	FieldProcessID            Field = "ProcessId"
	FieldFrameworkID          Field = "FrameworkId"
	FieldRuntimeID            Field = "RuntimeId"
	FieldNativeWindowHandle   Field = "NativeWindowHandle"
	FieldBoundingRectangle    Field = "BoundingRectangle"
	FieldHelpText             Field = "HelpText"
	FieldAccessKey            Field = "AccessKey"
	FieldIsEnabled            Field = "IsEnabled"
	FieldIsOffscreen          Field = "IsOffscreen"
	FieldHasKeyboardFocus     Field = "HasKeyboardFocus"
	FieldValue                Field = "Value"
	FieldToggleState          Field = "ToggleState"
	FieldIsSelected           Field = "IsSelected"
	FieldExpandCollapseState  Field = "ExpandCollapseState"
	FieldLegacyRole           Field = "LegacyIAccessibleRole"
	FieldLegacyName           Field = "LegacyIAccessibleName"
	FieldLegacyValue          Field = "LegacyIAccessibleValue"
)

var knownFields = map[Field]bool{
	FieldName:                 true,
	FieldAutomationID:         true,
	FieldClassName:            true,
	FieldControlType:          true,
	FieldLocalizedControlType: true,
	FieldProcessID:            true,
	FieldFrameworkID:          true,
	FieldRuntimeID:            true,
	FieldNativeWindowHandle:   true,
	FieldBoundingRectangle:    true,
	FieldHelpText:             true,
	FieldAccessKey:            true,
	FieldIsEnabled:            true,
	FieldIsOffscreen:          true,
	FieldHasKeyboardFocus:     true,
	FieldValue:                true,
	FieldToggleState:          true,
	FieldIsSelected:           true,
	FieldExpandCollapseState:  true,
	FieldLegacyRole:           true,
	FieldLegacyName:           true,
	FieldLegacyValue:          true,
}

// IsKnownField 判断属性名是否有效
func IsKnownField(f Field) bool {
	return knownFields[f]
}

// KnownFields 返回全部有效属性名（已排序）
func KnownFields() []Field {
	out := make([]Field, 0, len(knownFields))
	for f := range knownFields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseField 校验属性名
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !IsKnownField(f) {
		return "", locate.Malformed(name, "未知的属性名")
	}
	return f, nil
}

// ControlType UI Automation 控件类型 ID
type ControlType int

const (
	Button      ControlType = 50000
	Calendar    ControlType = 50001
	CheckBox    ControlType = 50002
	ComboBox    ControlType = 50003
	Edit        ControlType = 50004
	Hyperlink   ControlType = 50005
	Image       ControlType = 50006
	ListItem    ControlType = 50007
	List        ControlType = 50008
	Menu        ControlType = 50009
	MenuBar     ControlType = 50010
	MenuItem    ControlType = 50011
	ProgressBar ControlType = 50012
	RadioButton ControlType = 50013
	ScrollBar   ControlType = 50014
	Slider      ControlType = 50015
	Spinner     ControlType = 50016
	StatusBar   ControlType = 50017
	Tab         ControlType = 50018
	TabItem     ControlType = 50019
	Text        ControlType = 50020
	ToolBar     ControlType = 50021
	ToolTip     ControlType = 50022
	Tree        ControlType = 50023
	TreeItem    ControlType = 50024
	Custom      ControlType = 50025
	Group       ControlType = 50026
	Thumb       ControlType = 50027
	DataGrid    ControlType = 50028
	DataItem    ControlType = 50029
	Document    ControlType = 50030
	SplitButton ControlType = 50031
	Window      ControlType = 50032
	Pane        ControlType = 50033
	Header      ControlType = 50034
	HeaderItem  ControlType = 50035
	Table       ControlType = 50036
	TitleBar    ControlType = 50037
	Separator   ControlType = 50038
)

var controlTypeNames = map[ControlType]string{
	Button: "Button", Calendar: "Calendar", CheckBox: "CheckBox", ComboBox: "ComboBox",
	Edit: "Edit", Hyperlink: "Hyperlink", Image: "Image", ListItem: "ListItem",
	List: "List", Menu: "Menu", MenuBar: "MenuBar", MenuItem: "MenuItem",
	ProgressBar: "ProgressBar", RadioButton: "RadioButton", ScrollBar: "ScrollBar",
	Slider: "Slider", Spinner: "Spinner", StatusBar: "StatusBar", Tab: "Tab",
	TabItem: "TabItem", Text: "Text", ToolBar: "ToolBar", ToolTip: "ToolTip",
	Tree: "Tree", TreeItem: "TreeItem", Custom: "Custom", Group: "Group",
	Thumb: "Thumb", DataGrid: "DataGrid", DataItem: "DataItem", Document: "Document",
	SplitButton: "SplitButton", Window: "Window", Pane: "Pane", Header: "Header",
	HeaderItem: "HeaderItem", Table: "Table", TitleBar: "TitleBar", Separator: "Separator",
}

func (c ControlType) String() string {
	if name, ok := controlTypeNames[c]; ok {
		return name
	}
	return "ControlType(" + itoa(int(c)) + ")"
}

// ParseControlType 按名称解析控件类型（如 "Button"）
func ParseControlType(name string) (ControlType, error) {
	for ct, n := range controlTypeNames {
		if n == name {
			return ct, nil
		}
	}
	return 0, locate.Malformed(string(FieldControlType), "未知的控件类型: %s", name)
}

// MSAA 角色，仅用于区分 Custom 控件
const (
	RoleNone        = 0
	RoleLink        = 0x1E
	RoleGraphic     = 0x28
	RolePushButton  = 0x2B
	RoleCheckButton = 0x2C
	RoleRadioButton = 0x2D
	RoleComboBox    = 0x2E
)
