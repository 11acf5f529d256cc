package viewer

type ToolMode string

const (
	ToolPan                     ToolMode = "Pan"
	ToolTextSelect              ToolMode = "TextSelect"
	ToolAnnotationEdit          ToolMode = "AnnotationEdit"
	ToolAnnotationCreateSticky  ToolMode = "AnnotationCreateSticky"
	ToolAnnotationCreateFree    ToolMode = "AnnotationCreateFreeHand"
	ToolAnnotationCreateRect    ToolMode = "AnnotationCreateRectangle"
	ToolAnnotationCreateEllipse ToolMode = "AnnotationCreateEllipse"
	ToolAnnotationCreateLine    ToolMode = "AnnotationCreateLine"
	ToolAnnotationHighlight     ToolMode = "AnnotationCreateTextHighlight"
	ToolAnnotationFreeText      ToolMode = "AnnotationCreateFreeText"
)

var toolModes = map[ToolMode]bool{
	ToolPan:                     true,
	ToolTextSelect:              true,
	ToolAnnotationEdit:          true,
	ToolAnnotationCreateSticky:  true,
	ToolAnnotationCreateFree:    true,
	ToolAnnotationCreateRect:    true,
	ToolAnnotationCreateEllipse: true,
	ToolAnnotationCreateLine:    true,
	ToolAnnotationHighlight:     true,
	ToolAnnotationFreeText:      true,
}

func (m ToolMode) Valid() bool {
	return toolModes[m]
}

// State is the user facing state of the viewer. Page is one based and 0
// while no document is open.
type State struct {
	Path      string
	PageCount int
	Page      int
	Zoom      float64
	ToolMode  ToolMode

	SidePanelVisible bool

	User     string
	Admin    bool
	ReadOnly bool
}

// Status is a snapshot of the thumbnail panel.
type Status struct {
	State
	Pending   []int
	Loaded    []int
	Suspended bool
	ScrollTop float64
	Height    float64
	// media size of the current page in points, 0 without document
	PageWidth  float64
	PageHeight float64
}
